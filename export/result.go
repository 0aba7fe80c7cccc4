package export

import (
	"fmt"
	"strings"
)

const SEPARATOR = "::"

// ParseResult splits the export script result '<folderId>::<archiveId>' into the remote folder
// and archive IDs.
func ParseResult(result string) (folder string, archive string, err error) {
	before, after, found := strings.Cut(result, SEPARATOR)

	switch {
	case !found:
		return "", "", fmt.Errorf("%w: missing '%v' separator in %q", ErrParse, SEPARATOR, result)

	case strings.Contains(after, SEPARATOR):
		return "", "", fmt.Errorf("%w: multiple '%v' separators in %q", ErrParse, SEPARATOR, result)

	case strings.TrimSpace(before) == "":
		return "", "", fmt.Errorf("%w: missing folder ID in %q", ErrParse, result)

	case strings.TrimSpace(after) == "":
		return "", "", fmt.Errorf("%w: missing archive ID in %q", ErrParse, result)
	}

	return before, after, nil
}
