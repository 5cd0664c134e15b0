package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// probeOutput is the subset of `ffprobe -print_format json` output that the
// classifier reads.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Tags         map[string]string `json:"tags"`
	SideDataList []probeSideData   `json:"side_data_list"`
}

type probeSideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// VideoInfo describes the first video stream of a clip.
type VideoInfo struct {
	Width        int
	Height       int
	Rotation     int
	CreationTime string
	Location     string
}

// Displayed returns the dimensions as shown after applying the rotation.
func (v VideoInfo) Displayed() ImageDimensions {
	dims := ImageDimensions{Width: v.Width, Height: v.Height}
	if quarterTurn(v.Rotation) {
		return dims.Swapped()
	}
	return dims
}

func quarterTurn(rotation int) bool {
	r := ((rotation % 360) + 360) % 360
	return r == 90 || r == 270
}

// probeFunc runs ffprobe for a file and returns its JSON output.
type probeFunc func(ctx context.Context, path string) ([]byte, error)

func runFFprobe(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffprobe timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// parseProbeOutput extracts the first video stream's geometry and rotation.
// Rotation comes from the display matrix side data when present and from the
// legacy "rotate" stream tag otherwise.
func parseProbeOutput(data []byte) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, stream := range out.Streams {
		if stream.CodecType != "video" {
			continue
		}

		info := &VideoInfo{
			Width:        stream.Width,
			Height:       stream.Height,
			CreationTime: out.Format.Tags["creation_time"],
			Location:     firstTag(out.Format.Tags, "location", "com.apple.quicktime.location.ISO6709"),
		}

		found := false
		for _, side := range stream.SideDataList {
			if side.SideDataType == "Display Matrix" {
				info.Rotation = int(math.Round(side.Rotation))
				found = true
				break
			}
		}
		if !found {
			if rotate, ok := stream.Tags["rotate"]; ok {
				if r, err := strconv.Atoi(strings.TrimSpace(rotate)); err == nil {
					info.Rotation = r
				}
			}
		}

		if info.CreationTime == "" {
			info.CreationTime = stream.Tags["creation_time"]
		}

		if info.Width <= 0 || info.Height <= 0 {
			return nil, fmt.Errorf("video stream has no dimensions")
		}
		return info, nil
	}

	return nil, fmt.Errorf("no video stream found")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := tags[k]; ok && v != "" {
			return v
		}
	}
	return ""
}
