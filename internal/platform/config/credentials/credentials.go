// Package credentials resolves the GitHub login used by the REST client
package credentials

import (
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"ghrepostats/internal/platform/config"
	perr "ghrepostats/internal/platform/errors"
)

// FileName is looked up in each search directory in order
const FileName = "ghrepo-stats.ini"

// Credentials authenticate requests against the GitHub API
type Credentials struct {
	Username string
	Token    string
}

// Reader resolves Credentials from the environment first, then from an ini file
type Reader struct {
	Env  config.Conf
	Dirs []string
}

// Default searches GHSTATS_GITHUB_USER/TOKEN, then the working directory, then home
func Default() Reader {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return Reader{Env: config.New().Prefix("GHSTATS_GITHUB_"), Dirs: dirs}
}

// Read returns the first complete credential set found or a configuration error
func (r Reader) Read() (Credentials, error) {
	if tok := r.Env.MayString("TOKEN", ""); tok != "" {
		return Credentials{Username: r.Env.MayString("USER", ""), Token: tok}, nil
	}

	path, err := r.find()
	if err != nil {
		return Credentials{}, err
	}
	return parse(path)
}

func (r Reader) find() (string, error) {
	for _, d := range r.Dirs {
		p := filepath.Join(d, FileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", perr.Configf("missing initialization file %s, cannot authorize to GitHub", FileName)
}

func parse(path string) (Credentials, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Credentials{}, perr.Wrapf(err, perr.ErrorCodeConfig, "read %s", path)
	}
	sec, err := f.GetSection("auth")
	if err != nil {
		return Credentials{}, perr.Configf("section 'auth' missing in %s, cannot authorize to GitHub", FileName)
	}
	user := sec.Key("username").String()
	if user == "" {
		return Credentials{}, perr.Configf("missing entry 'username' in %s, cannot authorize to GitHub", FileName)
	}
	tok := sec.Key("token").String()
	if tok == "" {
		return Credentials{}, perr.Configf("missing entry 'token' in %s, cannot authorize to GitHub", FileName)
	}
	return Credentials{Username: user, Token: tok}, nil
}
