package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mixpanel/trending/util"
)

type format int

const (
	formatJSON = format(iota)
	formatText
)

var myPid = os.Getpid()

const timeFormatStr = "2006-01-02 15:04:05.000"

func jsonFormatter(lvl level, name, message string, fields Fields) string {
	fields = fields.Dupe()
	fields["logger"] = name
	fields["level"] = levelToString(lvl)
	fields["message"] = message

	formatted, err := json.Marshal(fields)
	if err != nil {
		return `{"level": "ERROR", "message": "Failed to serialize to JSON."}`
	}
	return string(formatted)
}

func textFormatter(lvl level, name, message string, fields Fields) string {
	buffer := util.SharedBufferPool.Get()
	defer util.SharedBufferPool.Put(buffer)

	if name == "" {
		fmt.Fprintf(buffer, "[%s] pid=%d [%s]: ", time.Now().Format(timeFormatStr), myPid, levelToString(lvl))
	} else {
		fmt.Fprintf(buffer, "[%s] pid=%d [%s] %s: ", time.Now().Format(timeFormatStr), myPid, levelToString(lvl), name)
	}
	formatFields(buffer, message, fields)

	return buffer.String()
}

func formatFields(buffer *bytes.Buffer, message string, fields Fields) {
	buffer.WriteString(message)

	if len(fields) == 0 {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buffer.WriteString(" | ")
	for i, k := range keys {
		buffer.WriteString(k)
		buffer.WriteByte('=')
		fmt.Fprintf(buffer, "%v", fields[k])
		if i < len(keys)-1 {
			buffer.WriteString(", ")
		}
	}
}

func formatToEnum(s string) format {
	switch s {
	case "json":
		return formatJSON
	default:
		return formatText
	}
}
