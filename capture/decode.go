package capture

import (
	"errors"
	"io"

	"go2tv.app/screengrab/codec"
	"go2tv.app/screengrab/media"
)

// DecodeOneFrame opens a decoder for stream and feeds it packets from src
// until the first frame comes out. No packet is read after that.
func DecodeOneFrame(src *Source, stream *media.Stream, c codec.Codec) (*codec.Frame, error) {
	if src == nil || stream == nil || c == nil {
		return nil, errorf(DecoderInitFailed, "missing source, stream or codec")
	}

	dec, err := c.NewDecoder(stream)
	if err != nil {
		return nil, newError(DecoderInitFailed, err)
	}
	defer func() {
		if err := dec.Close(); err != nil {
			src.logger.Debug("decoder close failed", "codec", c.Name(), "err", err)
		}
	}()

	packets := 0
	for {
		pkt, err := src.handle.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil, errorf(NoFrameProduced, "input ended after %d packets", packets)
		}
		if err != nil {
			return nil, newError(DecodeFailed, err)
		}
		packets++

		frame, err := decodePacket(dec, stream.Index, pkt)
		if err != nil {
			return nil, newError(DecodeFailed, err)
		}
		if frame != nil {
			src.logger.Debug("frame decoded", "codec", c.Name(), "packets", packets,
				"width", frame.Width, "height", frame.Height)
			return frame, nil
		}
	}
}

// decodePacket submits pkt and collects a frame if the decoder has one.
// A nil frame with a nil error means more input is needed.
func decodePacket(dec codec.Decoder, index int, pkt *media.Packet) (*codec.Frame, error) {
	defer pkt.Release()

	if pkt.StreamIndex != index {
		return nil, nil
	}
	if err := dec.SendPacket(pkt); err != nil {
		return nil, err
	}

	frame, err := dec.ReceiveFrame()
	if errors.Is(err, codec.ErrAgain) || errors.Is(err, codec.ErrEOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return frame, nil
}
