package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-checkers-bot/internal/domain"
)

const (
	playersFile = "players.csv"
	resultsFile = "results.csv"
)

var (
	playersHeader = []string{"name", "gamesPlayed", "gamesWon", "totalMoves", "totalTime"}
	resultsHeader = []string{"white", "black", "winner", "moves", "duration"}
)

// fileRepo mirrors memrepo into two CSV files under dir, rewriting both after
// every mutation. Times are stored in milliseconds.
type fileRepo struct {
	*memrepo

	writeMu sync.Mutex
	dir     string
	logger  *zap.Logger
}

// NewCSVRepository loads dir/players.csv and dir/results.csv, creating dir if needed.
// Malformed rows are skipped with a warning.
func NewCSVRepository(dir string, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	r := &fileRepo{memrepo: newMemrepo(), dir: dir, logger: logger}
	if err := r.loadPlayers(); err != nil {
		return nil, err
	}
	if err := r.loadResults(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileRepo) EnsurePlayer(ctx context.Context, name string) (*domain.PlayerStats, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	p, created := r.ensureLocked(name)
	cp := *p
	r.mu.Unlock()

	if created {
		if err := r.flush(); err != nil {
			return nil, err
		}
	}
	return &cp, nil
}

func (r *fileRepo) AddResult(ctx context.Context, rec *domain.GameRecord) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	err := r.addLocked(rec)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.flush()
}

func (r *fileRepo) flush() error {
	r.mu.RLock()
	players := make([][]string, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, []string{
			p.Name,
			strconv.Itoa(p.GamesPlayed),
			strconv.Itoa(p.GamesWon),
			strconv.Itoa(p.TotalMoves),
			strconv.FormatInt(p.TotalTime.Milliseconds(), 10),
		})
	}
	results := make([][]string, 0, len(r.results))
	for _, g := range r.results {
		results = append(results, []string{
			g.WhiteName,
			g.BlackName,
			g.WinnerName,
			strconv.Itoa(g.TotalMoves),
			strconv.FormatInt(g.Duration.Milliseconds(), 10),
		})
	}
	r.mu.RUnlock()

	sort.Slice(players, func(i, j int) bool { return players[i][0] < players[j][0] })
	if err := writeCSV(filepath.Join(r.dir, playersFile), playersHeader, players); err != nil {
		return err
	}
	return writeCSV(filepath.Join(r.dir, resultsFile), resultsHeader, results)
}

func writeCSV(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// readCSV returns data rows without the header. A missing file yields no rows.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	var rows [][]string
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (r *fileRepo) loadPlayers() error {
	path := filepath.Join(r.dir, playersFile)
	rows, err := readCSV(path)
	if err != nil {
		return err
	}
	now := r.now()
	for i, row := range rows {
		p, err := parsePlayerRow(row)
		if err != nil {
			r.logger.Warn("records_csv_skip_row", zap.String("file", path), zap.Int("row", i+2), zap.Error(err))
			continue
		}
		p.CreatedAt, p.UpdatedAt = now, now
		r.players[p.Name] = p
	}
	return nil
}

func (r *fileRepo) loadResults() error {
	path := filepath.Join(r.dir, resultsFile)
	rows, err := readCSV(path)
	if err != nil {
		return err
	}
	for i, row := range rows {
		rec, err := parseResultRow(row)
		if err != nil {
			r.logger.Warn("records_csv_skip_row", zap.String("file", path), zap.Int("row", i+2), zap.Error(err))
			continue
		}
		r.nextID++
		rec.ID = r.nextID
		r.results = append(r.results, rec)
	}
	return nil
}

func parsePlayerRow(row []string) (*domain.PlayerStats, error) {
	if len(row) < len(playersHeader) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(playersHeader), len(row))
	}
	nums, err := parseInts(row[1:5])
	if err != nil {
		return nil, err
	}
	return &domain.PlayerStats{
		Name:        row[0],
		GamesPlayed: int(nums[0]),
		GamesWon:    int(nums[1]),
		TotalMoves:  int(nums[2]),
		TotalTime:   time.Duration(nums[3]) * time.Millisecond,
	}, nil
}

func parseResultRow(row []string) (*domain.GameRecord, error) {
	if len(row) < len(resultsHeader) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(resultsHeader), len(row))
	}
	nums, err := parseInts(row[3:5])
	if err != nil {
		return nil, err
	}
	return &domain.GameRecord{
		WhiteName:  row[0],
		BlackName:  row[1],
		WinnerName: row[2],
		TotalMoves: int(nums[0]),
		Duration:   time.Duration(nums[1]) * time.Millisecond,
	}, nil
}

func parseInts(fields []string) ([]int64, error) {
	out := make([]int64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}
		out[i] = n
	}
	return out, nil
}
