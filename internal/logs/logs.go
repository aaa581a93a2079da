package logs

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Usable before Init (defaults to info/text on stderr).
var Logger = logrus.New()

type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	File   string // пусто = только stderr
}

func Init(o Options) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(o.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)

	switch strings.ToLower(o.Format) {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			Logger.Warnf("log file %s: %v (stderr only)", o.File, err)
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}
	Logger.SetOutput(out)
}

// Site returns an entry pre-tagged with the site id.
func Site(siteID uint) *logrus.Entry {
	return Logger.WithField("site", siteID)
}
