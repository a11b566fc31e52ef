package logger

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Theme-aware, single-line console output: "13:04:05  pipeline  Applied remote move  n_42"
// (field values only, without their keys).
// The full field set is always available via JSON output (Initialize(true));
// this encoder is for local development legibility.

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

type everforestColors struct {
	fg          string
	greenBright string
	greenMid    string
	greenDeep   string
	aqua        string
	orange      string
	yellow      string
	red         string
	yellowBg    string
	redBg       string
}

var everforest = everforestColors{
	fg:          "\x1b[38;5;223m",
	greenBright: "\x1b[38;5;108m",
	greenMid:    "\x1b[38;5;107m",
	greenDeep:   "\x1b[38;5;65m",
	aqua:        "\x1b[38;5;109m",
	orange:      "\x1b[38;5;208m",
	yellow:      "\x1b[38;5;179m",
	red:         "\x1b[38;5;167m",
	yellowBg:    "\x1b[48;5;58m",
	redBg:       "\x1b[48;5;52m",
}

type gruvboxColors struct {
	fg       string
	aqua     string
	orange   string
	yellow   string
	green    string
	blue     string
	purple   string
	red      string
	yellowBg string
	redBg    string
}

var gruvbox = gruvboxColors{
	fg:       "\x1b[38;5;223m",
	aqua:     "\x1b[38;5;108m",
	orange:   "\x1b[38;5;208m",
	yellow:   "\x1b[38;5;214m",
	green:    "\x1b[38;5;142m",
	blue:     "\x1b[38;5;109m",
	purple:   "\x1b[38;5;175m",
	red:      "\x1b[38;5;167m",
	yellowBg: "\x1b[48;5;58m",
	redBg:    "\x1b[48;5;88m",
}

var currentTheme = "everforest"

// SetTheme configures the console color scheme.
func SetTheme(theme string) {
	if theme == "everforest" || theme == "gruvbox" {
		currentTheme = theme
	}
}

func colorTime() string {
	if currentTheme == "everforest" {
		return everforest.greenMid
	}
	return gruvbox.aqua
}

func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	if currentTheme == "everforest" {
		switch hash % 3 {
		case 0:
			return everforest.greenBright
		case 1:
			return everforest.greenDeep
		default:
			return everforest.orange
		}
	}
	if hash%2 == 0 {
		return gruvbox.orange
	}
	return gruvbox.yellow
}

func colorMessage(msg string) string {
	lower := strings.ToLower(msg)
	if currentTheme == "everforest" {
		switch {
		case strings.Contains(lower, "reconcil") || strings.Contains(lower, "sync") || strings.Contains(lower, "applied"):
			return everforest.greenBright
		case strings.Contains(lower, "remote") || strings.Contains(lower, "broadcast") || strings.Contains(lower, "ack"):
			return everforest.greenMid
		case strings.Contains(lower, "upload") || strings.Contains(lower, "undo") || strings.Contains(lower, "align"):
			return everforest.greenDeep
		default:
			return everforest.fg
		}
	}
	switch {
	case strings.Contains(lower, "remote") || strings.Contains(lower, "broadcast"):
		return gruvbox.blue
	case strings.Contains(lower, "reconcil") || strings.Contains(lower, "sync"):
		return gruvbox.green
	case strings.Contains(lower, "upload") || strings.Contains(lower, "undo"):
		return gruvbox.orange
	default:
		return gruvbox.fg
	}
}

var bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)

// colorizeMessage applies context-aware color to bracketed tokens (e.g.
// "[op:abc123]") and inline symbols, leaving the rest in the base color.
func colorizeMessage(msg string) string {
	symbolColor := everforest.greenBright
	opColor := everforest.aqua
	baseColor := everforest.fg
	if currentTheme != "everforest" {
		symbolColor, opColor, baseColor = gruvbox.green, gruvbox.blue, gruvbox.fg
	}

	var result strings.Builder
	lastIndex := 0
	for _, match := range bracketPattern.FindAllStringSubmatchIndex(msg, -1) {
		before := colorizeSymbols(msg[lastIndex:match[0]], symbolColor)
		if before != "" {
			result.WriteString(baseColor)
			result.WriteString(before)
			result.WriteString(colorReset)
		}
		result.WriteString(opColor)
		result.WriteString(msg[match[0]:match[1]])
		result.WriteString(colorReset)
		lastIndex = match[1]
	}
	remaining := colorizeSymbols(msg[lastIndex:], symbolColor)
	if remaining != "" {
		result.WriteString(baseColor)
		result.WriteString(remaining)
		result.WriteString(colorReset)
	}
	return result.String()
}

func colorizeSymbols(text, color string) string {
	for _, s := range []string{Sync, Align, Upload, Undo} {
		text = strings.ReplaceAll(text, s, color+s+colorReset)
	}
	return text
}

func colorID() string {
	if currentTheme == "everforest" {
		return everforest.aqua
	}
	return gruvbox.blue
}

func colorNumber() string {
	if currentTheme == "everforest" {
		return everforest.greenBright
	}
	return gruvbox.purple
}

func colorWarn() (string, string) {
	if currentTheme == "everforest" {
		return everforest.yellow, everforest.yellowBg
	}
	return gruvbox.yellow, gruvbox.yellowBg
}

func colorError() (string, string) {
	if currentTheme == "everforest" {
		return everforest.red, everforest.redBg
	}
	return gruvbox.red, gruvbox.redBg
}

type minimalEncoder struct {
	zapcore.Encoder
	buf *buffer.Buffer
}

func newMinimalEncoder() *minimalEncoder {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return &minimalEncoder{Encoder: base, buf: buffer.NewPool().Get()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{Encoder: enc.Encoder.Clone(), buf: buffer.NewPool().Get()}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colorTime())
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(ent.LoggerName)
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	_ = colorMessage(ent.Message) // message color reserved for future per-word styling
	final.AppendString(colorizeMessage(ent.Message))

	if len(fields) > 0 {
		final.AppendString("  ")
		final.AppendString(extractFieldValues(fields))
	}

	final.AppendString("\n")
	return final, nil
}

func levelColorString(level zapcore.Level) string {
	warnColor, warnBg := colorWarn()
	errColor, errBg := colorError()
	switch level {
	case zapcore.WarnLevel:
		return colorBold + warnBg + warnColor + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + errBg + errColor + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + errBg + errColor + level.CapitalString() + colorReset
	default:
		return ""
	}
}

func getFieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	default:
		if field.Interface != nil {
			return fmt.Sprintf("%v", field.Interface)
		}
		return ""
	}
}

// extractFieldValues pulls the values most useful at a glance: node/op
// identity in one color, counts and durations in another.
func extractFieldValues(fields []zapcore.Field) string {
	var values []string
	for _, field := range fields {
		switch field.Key {
		case FieldNodeID, FieldOpID, FieldHash:
			if v := getFieldValue(field); v != "" {
				values = append(values, colorID()+v+colorReset)
			}
		case FieldDurationMS:
			if v := getFieldValue(field); v != "" {
				values = append(values, colorNumber()+v+colorReset+"ms")
			}
		case FieldCount, FieldSent, FieldReceived:
			if v := getFieldValue(field); v != "" {
				values = append(values, colorNumber()+v+colorReset)
			}
		}
	}
	if len(values) == 0 {
		return ""
	}
	return strings.Join(values, " ")
}
