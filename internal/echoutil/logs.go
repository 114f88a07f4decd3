// Package echoutil holds the echo middleware and logger helpers shared by the
// HTTP host.
package echoutil

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc logs every request and its response at info level.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		begin := time.Now()
		c.Logger().Infof("< request %s %s", meth, path)

		err := next(c)

		c.Logger().Infof(
			"> response %s %s status = %d in %v / error = %v",
			meth, path, c.Response().Status, time.Since(begin), err,
		)
		return err
	}
}

// ParseLevel maps debug|info|warn|error|off to a gommon level. Unknown names
// report false.
func ParseLevel(name string) (log.Lvl, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DEBUG, true
	case "info":
		return log.INFO, true
	case "", "warn":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	}
	return log.WARN, false
}

// SetLevel applies loglevel to the echo logger, falling back to warn.
func SetLevel(e *echo.Echo, loglevel string) {
	level, ok := ParseLevel(loglevel)
	e.Logger.SetLevel(level)
	if !ok {
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
