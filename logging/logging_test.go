package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelToString(t *testing.T) {
	assert.Equal(t, "DEBUG", levelToString(levelDebug))
	assert.Equal(t, "INFO", levelToString(levelInfo))
	assert.Equal(t, "WARN", levelToString(levelWarn))
	assert.Equal(t, "ERROR", levelToString(levelError))
	assert.Equal(t, "UNKNOWN", levelToString(level(123245)))
}

type formattingTestCase struct {
	fields   Fields
	message  string
	expected string
}

func TestMessageFormatting(t *testing.T) {
	testCases := []formattingTestCase{
		{Fields{}, "a message with empty fields", "a message with empty fields"},
		{Fields{"key": "value"}, "message with one field", `message with one field | key=value`},
		{Fields{"key": "value", "key2": "value2"}, "message with more than one field", `message with more than one field | key=value, key2=value2`},
		{Fields{"keyz": "value", "keya": "value2"}, "message with non-alphabetic keys", `message with non-alphabetic keys | keya=value2, keyz=value`},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expected, fmtMessage(testCase.message, testCase.fields))
	}
}

func TestTextFormattingLevel(t *testing.T) {
	actual := textFormatter(levelInfo, "", "message", Fields{})
	assert.True(t, strings.Contains(actual, "[INFO]"))
}

func TestJSONFormatting(t *testing.T) {
	line := jsonFormatter(levelWarn, "stream", "pruned", Fields{"keys": 12})

	parsed := map[string]interface{}{}
	err := json.Unmarshal([]byte(line), &parsed)
	if assert.NoError(t, err) {
		assert.Equal(t, "WARN", parsed["level"])
		assert.Equal(t, "stream", parsed["logger"])
		assert.Equal(t, "pruned", parsed["message"])
		assert.Equal(t, float64(12), parsed["keys"])
	}
}

func TestLoggerWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWriterLogger(levelDebug, formatText, buf)
	logger.Info("test", Fields{"key": "value"})
	assert.Contains(t, buf.String(), `key=value`)
}

func TestLoggerNamed(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWriterLogger(levelDebug, formatText, buf)
	logger = logger.Named("stream")
	logger.Info("test", nil)
	assert.Contains(t, buf.String(), "stream")
}

func TestLoggerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWriterLogger(levelWarn, formatText, buf)
	logger.Debug("quiet", nil)
	logger.Info("quiet", nil)
	assert.Equal(t, "", buf.String())

	logger.Warn("loud", nil)
	assert.Contains(t, buf.String(), "loud")
}

func TestFieldsWithError(t *testing.T) {
	fields := Fields{"archive": "tweets.zip"}.WithError(assert.AnError)
	assert.Equal(t, "tweets.zip", fields["archive"])
	assert.Contains(t, fields["error_message"], "assert.AnError")
}

func fmtMessage(message string, fields Fields) string {
	buf := &bytes.Buffer{}
	formatFields(buf, message, fields)
	return buf.String()
}
