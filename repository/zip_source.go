// Package repository reads tweets out of their archive form: a zip
// containing one newline-delimited JSON file, one tweet per line.
package repository

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/mixpanel/trending"
	"github.com/mixpanel/trending/obserr"
)

// tweets.json lines regularly exceed bufio's default token size
const maxLineBytes = 4 * 1024 * 1024

var errLineTooLong = errors.New("record longer than the line limit")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type rawTweet struct {
	Date string `json:"date"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
	Content string `json:"content"`
}

// ZipSource streams tweets line by line from the archive without ever
// holding the decompressed file in memory. Lines that fail to decode are
// reported as skippable; the aggregators decide what to do with them.
type ZipSource struct {
	archive *zip.ReadCloser
	entry   io.ReadCloser
	reader  *bufio.Reader
	line    int
}

// OpenZip opens the archive and positions the source at the first line of
// its first entry. Structural problems (missing file, not a zip, no
// entries) are fatal.
func OpenZip(path string) (*ZipSource, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, obserr.Annotate(trending.ErrBadArchive, err).Set("archive", path)
	}

	if len(archive.File) == 0 {
		archive.Close()
		return nil, obserr.Annotate(trending.ErrBadArchive, "archive has no entries").Set("archive", path)
	}

	entry, err := archive.File[0].Open()
	if err != nil {
		archive.Close()
		return nil, obserr.Annotate(trending.ErrBadArchive, err).Set("archive", path)
	}

	return &ZipSource{
		archive: archive,
		entry:   entry,
		reader:  bufio.NewReaderSize(entry, 64*1024),
	}, nil
}

func (z *ZipSource) Next() (trending.Tweet, error) {
	for {
		raw, err := z.readLine()
		if err == errLineTooLong {
			// one oversized record; the rest of the archive is fine
			z.line++
			return trending.Tweet{}, obserr.Annotate(trending.ErrBadRecord, errLineTooLong).Set("line", z.line)
		}
		if err != nil && err != io.EOF {
			return trending.Tweet{}, obserr.Annotate(trending.ErrBadArchive, err).Set("line", z.line)
		}
		if err == io.EOF && len(raw) == 0 {
			return trending.Tweet{}, io.EOF
		}
		z.line++

		line := bytes.TrimRight(raw, "\r\n")
		if len(line) == 0 {
			continue
		}
		return decodeLine(line, z.line)
	}
}

// readLine accumulates one newline-terminated line up to maxLineBytes.
// Past the cap it drains the remainder of the line and reports
// errLineTooLong, leaving the reader positioned at the next line.
func (z *ZipSource) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := z.reader.ReadSlice('\n')
		line = append(line, chunk...)
		if err == bufio.ErrBufferFull {
			if len(line) > maxLineBytes {
				if derr := z.drainLine(); derr != nil {
					return nil, derr
				}
				return nil, errLineTooLong
			}
			continue
		}
		return line, err
	}
}

func (z *ZipSource) drainLine() error {
	for {
		_, err := z.reader.ReadSlice('\n')
		switch err {
		case nil, io.EOF:
			return nil
		case bufio.ErrBufferFull:
			continue
		default:
			return err
		}
	}
}

func (z *ZipSource) Close() error {
	z.entry.Close()
	return z.archive.Close()
}

func decodeLine(line []byte, lineNo int) (trending.Tweet, error) {
	var raw rawTweet
	if err := json.Unmarshal(line, &raw); err != nil {
		return trending.Tweet{}, obserr.Annotate(trending.ErrBadRecord, err).Set("line", lineNo)
	}

	created, err := time.Parse(time.RFC3339, raw.Date)
	if err != nil {
		return trending.Tweet{}, obserr.Annotate(trending.ErrBadRecord, err).Set("line", lineNo)
	}

	return trending.Tweet{
		CreatedAt: created,
		Username:  raw.User.Username,
		Text:      raw.Content,
	}, nil
}
