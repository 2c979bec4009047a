package srt

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/janjanpower/text-alignment-tool/internal/document"
)

var timestampRegex = regexp.MustCompile(
	`(\d{2,}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2}),(\d{3})`,
)

// Parse reads an SRT file into a batch of document entries. Ordinals
// are renumbered 0-based and contiguous regardless of the cue numbers
// in the file, and every entry is validated before the batch is
// returned.
func Parse(path string) ([]document.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer file.Close()

	var entries []document.Entry
	scanner := bufio.NewScanner(file)

	var current *document.Entry
	var textLines []string
	lineNum := 0
	now := time.Now()

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Text = strings.Join(textLines, "\n")
			current.Index = len(entries)
			entries = append(entries, *current)
		}
		current = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				current = &document.Entry{CreatedAt: now, UpdatedAt: now}
				continue
			}
		}

		if current != nil && current.StartTime == "" && current.EndTime == "" {
			matches := timestampRegex.FindStringSubmatch(line)
			if len(matches) == 9 {
				current.StartTime = document.TimeCode(
					fmt.Sprintf("%s:%s:%s,%s", matches[1], matches[2], matches[3], matches[4]))
				current.EndTime = document.TimeCode(
					fmt.Sprintf("%s:%s:%s,%s", matches[5], matches[6], matches[7], matches[8]))
				if err := current.Validate(); err != nil {
					return nil, fmt.Errorf("invalid cue at line %d: %w", lineNum, err)
				}
				continue
			}
		}

		if current != nil {
			textLines = append(textLines, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT file: %w", err)
	}

	return entries, nil
}

// Write renders the entries to an SRT file with 1-based cue numbers.
func Write(path string, entries []document.Entry) error {
	var sb strings.Builder
	for i, entry := range entries {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", entry.StartTime, entry.EndTime))
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
