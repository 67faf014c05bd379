package ffprobe

import (
	"testing"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio", "avg_frame_rate": "0/0", "r_frame_rate": "0/0"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720,
     "avg_frame_rate": "30000/1001", "r_frame_rate": "30000/1001"}
  ]
}`

func TestParseAndVideoStream(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stream, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if stream.Width != 1280 || stream.Height != 720 {
		t.Fatalf("unexpected size: %dx%d", stream.Width, stream.Height)
	}
	if fps := stream.FrameRate(); fps < 29.97 || fps > 29.98 {
		t.Fatalf("unexpected frame rate: %v", fps)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFrameRate(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		want   float64
	}{
		{name: "Average rate", stream: Stream{AvgFrameRate: "25/1", RFrameRate: "50/1"}, want: 25},
		{name: "Falls back to r_frame_rate", stream: Stream{AvgFrameRate: "0/0", RFrameRate: "24/1"}, want: 24},
		{name: "Plain number", stream: Stream{AvgFrameRate: "60"}, want: 60},
		{name: "Unreported", stream: Stream{AvgFrameRate: "0/0", RFrameRate: "0/0"}, want: 0},
		{name: "Malformed", stream: Stream{AvgFrameRate: "abc/def"}, want: 0},
		{name: "Empty", stream: Stream{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stream.FrameRate(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNoVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, ok := result.VideoStream(); ok {
		t.Fatal("expected no video stream")
	}
}
