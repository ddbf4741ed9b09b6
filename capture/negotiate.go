package capture

import (
	"go2tv.app/screengrab/codec"
	"go2tv.app/screengrab/media"
)

// SelectVideoStream picks the stream to decode according to policy and
// resolves a codec for it.
func SelectVideoStream(src *Source, policy StreamPolicy) (*media.Stream, codec.Codec, error) {
	if src == nil || len(src.Streams) == 0 {
		return nil, nil, errorf(ProbeFailed, "no streams to select from")
	}

	var stream *media.Stream
	switch policy {
	case FirstStream:
		stream = src.Streams[0]
	case FirstVideoStream:
		for _, st := range src.Streams {
			if st.Type == media.TypeVideo {
				stream = st
				break
			}
		}
	default:
		return nil, nil, errorf(ProbeFailed, "unknown stream policy %d", int(policy))
	}
	if stream == nil {
		return nil, nil, errorf(ProbeFailed, "no %s stream among %d", policy, len(src.Streams))
	}

	c, ok := codec.Find(stream.Codec)
	if !ok {
		return nil, nil, errorf(UnsupportedCodec, "no decoder for codec %q of stream %d", stream.Codec, stream.Index)
	}
	src.logger.Debug("selected stream", "index", stream.Index, "codec", stream.Codec, "policy", policy.String())
	return stream, c, nil
}
