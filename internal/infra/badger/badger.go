package badgerstore

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sifan077/VisitAudit/config"
	"go.uber.org/zap"
)

const defaultPath = "./data/visits"

// Open opens the embedded visit database described by cfg.
func Open(cfg config.BadgerConfig, log *zap.Logger) (*badger.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := badger.Open(Options(cfg).WithLogger(zapLogger{log.Named("badger").Sugar()}))
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return db, nil
}

// Options maps cfg onto badger options. InMemory ignores Path.
func Options(cfg config.BadgerConfig) badger.Options {
	if cfg.InMemory {
		return badger.DefaultOptions("").WithInMemory(true)
	}
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	return badger.DefaultOptions(path)
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }
