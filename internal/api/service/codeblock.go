package service

import "strings"

// ExtractCode pulls the first fenced code block out of a model reply. The
// language tag is ignored. A reply with no fence is returned trimmed as-is,
// since smaller models often skip the fence.
func ExtractCode(reply string) string {
	trimmed := strings.TrimSpace(reply)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if isFenceTag(firstLine) {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// HasCodeFence reports whether the reply carries a fenced code block.
func HasCodeFence(reply string) bool {
	return strings.Count(reply, "```") >= 2
}

// stripFirstFence removes the first fenced block, leaving the prose around
// it.
func stripFirstFence(reply string) string {
	start := strings.Index(reply, "```")
	if start < 0 {
		return reply
	}
	rest := reply[start+3:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return reply[:start]
	}
	return reply[:start] + rest[end+3:]
}

func isFenceTag(line string) bool {
	if line == "" {
		return true
	}
	for _, r := range line {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
