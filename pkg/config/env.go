package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// EnvFile remembers the selected environment, e.g. dev or ci, in a dotfile.
// The environment picks an extra config file to merge over the common one.
type EnvFile struct {
	dir     string
	appName string
}

func NewEnvFile(dir, appName string) *EnvFile {
	return &EnvFile{dir: dir, appName: appName}
}

func (e *EnvFile) GetPath() string {
	return filepath.Join(e.dir, fmt.Sprintf(".%senv", e.appName))
}

func (e *EnvFile) Set(env string) error {
	if strings.TrimSpace(env) == "" {
		return errors.New("environment name must not be empty")
	}
	err := ioutil.WriteFile(e.GetPath(), []byte(env), 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (e *EnvFile) Get() (string, error) {
	env, err := ioutil.ReadFile(e.GetPath())
	if err != nil {
		return "", errors.WithStack(err)
	}
	return strings.TrimSpace(string(env)), nil
}

func (e *EnvFile) GetOrDefault(defaultEnv string) string {
	env, err := e.Get()
	if err != nil {
		log.Debugf("%s", err)
		return defaultEnv
	}
	return env
}

func exists(filename string) bool {
	stat, err := os.Stat(filename)
	return err == nil && !stat.IsDir()
}
