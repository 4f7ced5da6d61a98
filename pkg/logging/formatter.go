package logging

import (
	"fmt"

	"github.com/mitchellh/colorstring"
	"github.com/sirupsen/logrus"
)

var levelColors = map[logrus.Level]string{
	logrus.PanicLevel: "red",
	logrus.FatalLevel: "red",
	logrus.ErrorLevel: "red",
	logrus.WarnLevel:  "yellow",
	logrus.InfoLevel:  "green",
	logrus.DebugLevel: "dark_gray",
	logrus.TraceLevel: "dark_gray",
}

// textFormatter prints the message after a level colour and, when present,
// the test and step the entry belongs to.
type textFormatter struct {
	colorize *colorstring.Colorize
	colors   map[logrus.Level]string
}

func newTextFormatter(color bool) *textFormatter {
	return &textFormatter{
		colorize: &colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !color,
			Reset:   true,
		},
		colors: levelColors,
	}
}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var prefix = "[" + f.colors[entry.Level] + "]"
	if test, ok := entry.Data["test"].(string); ok {
		if s, ok := entry.Data["step"]; ok {
			prefix = fmt.Sprintf("%s%s#%v ≫ ", prefix, test, s)
		} else {
			prefix = fmt.Sprintf("%s%s ≫ ", prefix, test)
		}
	}
	return []byte(f.colorize.Color(fmt.Sprintf("%s%s\n", prefix, entry.Message))), nil
}

type MessageOnlyFormatter struct {
}

func (f *MessageOnlyFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}
