package common

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxPostContentLength = 2000
	MaxAttachments       = 10
)

var reactionKindRegex = regexp.MustCompile(`^[a-z_]{2,32}$`)

func ValidatePostContent(content string, attachments int) error {
	if strings.TrimSpace(content) == "" && attachments == 0 {
		return errors.New("post must have text or media")
	}
	if utf8.RuneCountInString(content) > MaxPostContentLength {
		return errors.New("post content is too long")
	}
	if attachments > MaxAttachments {
		return errors.New("too many attachments")
	}
	return nil
}

// ValidateReactionKind accepts lowercase identifiers such as "like" or "fire".
func ValidateReactionKind(kind string) error {
	if !reactionKindRegex.MatchString(kind) {
		return errors.New("reaction kind must be 2-32 lowercase letters or underscores")
	}
	return nil
}
