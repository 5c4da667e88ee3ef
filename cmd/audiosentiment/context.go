package main

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/codebuildervaibhav/audio-sentiment/internal/app"
	"github.com/codebuildervaibhav/audio-sentiment/internal/config"
	"github.com/codebuildervaibhav/audio-sentiment/internal/logger"
	"github.com/codebuildervaibhav/audio-sentiment/internal/storage"
)

var errNoHistory = errors.New("result history disabled: set storage.database in the config")

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// logger sends log output to w so stdout stays reserved for command output.
func (c *commandContext) logger(w io.Writer) *logger.Logger {
	log := logger.New()
	log.Logger.SetOutput(w)
	return log
}

func (c *commandContext) withHistory(fn func(*storage.MetadataDB) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, err := app.OpenHistory(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return errNoHistory
	}
	defer db.Close()
	return fn(db)
}
