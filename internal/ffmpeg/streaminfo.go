package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"

	"go2tv.app/screengrab/media"
)

var (
	// "  Stream #0:0: Video: rawvideo (BGR[0] / 0x524742), bgr0, 1920x1080, 30 fps, 1000k tbr"
	streamLineRE = regexp.MustCompile(`^Stream #(\d+):(\d+)(?:\[[^\]]*\])?(?:\([^)]*\))?: (\w+): (.*)$`)
	sizeRE       = regexp.MustCompile(`^(\d+)x(\d+)\b`)
	fpsRE        = regexp.MustCompile(`^([\d.]+)(k?) fps$`)
)

// probeParser follows ffmpeg's stderr until the input stream dump is over.
type probeParser struct {
	inInput bool
	opened  bool
	probed  bool
	streams []*media.Stream
}

// feed consumes one stderr line. It reports whether the line opened the
// input or finished the stream dump.
func (p *probeParser) feed(line string) (opened, probed bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case p.probed:
		return false, false
	case strings.HasPrefix(trimmed, "Input #0"):
		p.inInput = true
		if !p.opened {
			p.opened = true
			return true, false
		}
	case strings.HasPrefix(trimmed, "Output #"),
		strings.HasPrefix(trimmed, "Stream mapping:"),
		strings.HasPrefix(trimmed, "Press [q]"):
		if p.inInput {
			p.inInput = false
			p.probed = true
			return false, true
		}
	case p.inInput && strings.HasPrefix(trimmed, "Stream #"):
		if st, ok := parseStreamLine(trimmed); ok {
			p.streams = append(p.streams, st)
		}
	}
	return false, false
}

// parseStreamLine decodes one "Stream #0:N: ..." line of an input dump.
func parseStreamLine(line string) (*media.Stream, bool) {
	m := streamLineRE.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil || m[1] != "0" {
		return nil, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}

	st := &media.Stream{
		Index: index,
		Type:  mediaType(m[3]),
	}
	parts := splitTopLevel(m[4])
	if len(parts) == 0 {
		return st, true
	}
	st.Codec = firstWord(parts[0])
	if st.Type != media.TypeVideo {
		return st, true
	}

	for i, part := range parts[1:] {
		if sm := sizeRE.FindStringSubmatch(part); sm != nil {
			st.Width, _ = strconv.Atoi(sm[1])
			st.Height, _ = strconv.Atoi(sm[2])
			continue
		}
		if fm := fpsRE.FindStringSubmatch(part); fm != nil {
			fps, err := strconv.ParseFloat(fm[1], 64)
			if err == nil {
				if fm[2] == "k" {
					fps *= 1000
				}
				st.FrameRate = fps
			}
			continue
		}
		// The pixel format directly follows the codec.
		if i == 0 {
			st.PixelFormat = pixelFormatName(part)
		}
	}
	return st, true
}

func mediaType(s string) media.Type {
	switch s {
	case "Video":
		return media.TypeVideo
	case "Audio":
		return media.TypeAudio
	case "Data":
		return media.TypeData
	case "Subtitle":
		return media.TypeSubtitle
	default:
		return media.TypeUnknown
	}
}

// splitTopLevel splits on commas that are not inside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " ("); i >= 0 {
		return s[:i]
	}
	return s
}

// pixelFormatName strips qualifiers such as "bgr0(pc, gbr/unknown/unknown)".
func pixelFormatName(s string) string {
	name := firstWord(s)
	if sizeRE.MatchString(name) {
		return ""
	}
	return strings.ToLower(name)
}
