package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/novel-scraper/pkg/log"
	"github.com/Sriram-PR/novel-scraper/pkg/models"
	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

const chapterKeyPrefix = "chapter:"

// reportHeader is the first line of the TSV report
const reportHeader = "index\tstatus\terror_type\ttitle\turl"

// BadgerStore implements ChapterStore on an in-memory BadgerDB. Nothing is persisted.
type BadgerStore struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerStore opens an in-memory store
func NewBadgerStore(logger logrus.FieldLogger) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(log.NewBadgerLogrusAdapter(logger)).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open in-memory outcome store: %w", utils.ErrDatabase, err)
	}
	logger.Debug("Chapter outcome store opened (in-memory)")
	return &BadgerStore{db: db, log: logger}, nil
}

func chapterKey(index int) []byte {
	return []byte(fmt.Sprintf("%s%06d", chapterKeyPrefix, index))
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for transaction conflicts.
// Concurrent tasks only write their own key, so conflicts are rare and short-lived.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// Record implements ChapterStore
func (s *BadgerStore) Record(entry *models.ChapterDBEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: nil chapter entry", utils.ErrDatabase)
	}
	if !entry.Status.IsValid() {
		return fmt.Errorf("%w: chapter %d has non-terminal status '%s'", utils.ErrDatabase, entry.Index, entry.Status)
	}
	key := chapterKey(entry.Index)

	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal ChapterDBEntry for key '%s': %w", utils.ErrParsing, string(key), err)
	}

	err = s.dbUpdate(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in Record: %v", err)
		return fmt.Errorf("%w: failed setting chapter status for key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	return nil
}

// scan visits every recorded entry in index order
func (s *BadgerStore) scan(visit func(entry models.ChapterDBEntry) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chapterKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry models.ChapterDBEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("%w: reading chapter key '%s': %w", utils.ErrDatabase, string(item.Key()), err)
			}
			if err := visit(entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// Counts implements ChapterStore
func (s *BadgerStore) Counts() (Counts, error) {
	var c Counts
	err := s.scan(func(entry models.ChapterDBEntry) error {
		c.Total++
		switch entry.Status {
		case models.ChapterStatusSuccess:
			c.Succeeded++
		case models.ChapterStatusEmpty:
			c.Empty++
		case models.ChapterStatusFailure:
			c.Failed++
		}
		return nil
	})
	return c, err
}

// Failures implements ChapterStore
func (s *BadgerStore) Failures() ([]models.ChapterDBEntry, error) {
	var failures []models.ChapterDBEntry
	err := s.scan(func(entry models.ChapterDBEntry) error {
		if entry.Status.IsFailure() {
			failures = append(failures, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return failures, nil
}

// WriteReport implements ChapterStore
func (s *BadgerStore) WriteReport(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating report directory '%s': %w", utils.ErrFilesystem, dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create report '%s': %w", utils.ErrFilesystem, path, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	written := 0
	if _, err := writer.WriteString(reportHeader + "\n"); err != nil {
		return fmt.Errorf("%w: writing report '%s': %w", utils.ErrFilesystem, path, err)
	}

	scanErr := s.scan(func(entry models.ChapterDBEntry) error {
		row := []string{
			strconv.Itoa(entry.Index),
			entry.Status.String(),
			entry.ErrorType,
			tsvField(entry.Title),
			tsvField(entry.URL),
		}
		if _, err := writer.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return fmt.Errorf("%w: writing report '%s': %w", utils.ErrFilesystem, path, err)
		}
		written++
		return nil
	})
	if scanErr != nil {
		return scanErr
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: flushing report '%s': %w", utils.ErrFilesystem, path, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing report '%s': %w", utils.ErrFilesystem, path, err)
	}
	s.log.Infof("Wrote %d chapter outcome(s) to report: %s", written, path)
	return nil
}

// tsvField keeps a value on one line and in one column
func tsvField(v string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(v)
}

// Close implements ChapterStore
func (s *BadgerStore) Close() error {
	if s.db == nil || s.db.IsClosed() {
		return nil
	}
	if err := s.db.Close(); err != nil {
		s.log.Errorf("Error closing outcome store: %v", err)
		return fmt.Errorf("%w: close outcome store: %w", utils.ErrDatabase, err)
	}
	s.log.Debug("Chapter outcome store closed")
	return nil
}
