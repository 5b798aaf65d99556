package video

func pt(x, y float64) *Point { return &Point{X: x, Y: y} }

func uprightPose() *Pose {
	return &Pose{
		Nose:          pt(0.5, 0.2),
		LeftShoulder:  pt(0.4, 0.35),
		RightShoulder: pt(0.6, 0.35),
		LeftHip:       pt(0.45, 0.7),
		RightHip:      pt(0.55, 0.7),
	}
}

func steadyFace() *Face {
	return &Face{
		MouthLeft:   pt(0.45, 0.6),
		MouthRight:  pt(0.55, 0.6),
		MouthTop:    pt(0.5, 0.58),
		MouthBottom: pt(0.5, 0.62),
		LeftEye:     pt(0.42, 0.4),
		RightEye:    pt(0.58, 0.4),
	}
}

func framesOf(n int, build func(i int) Frame) []Frame {
	out := make([]Frame, n)
	for i := range out {
		out[i] = build(i)
		out[i].Index = i * DefaultFrameSkip
	}
	return out
}

func metaFor(frames []Frame) VideoMeta {
	n := len(frames)
	return VideoMeta{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		FPS:             DefaultFPS,
		TotalFrames:     n * DefaultFrameSkip,
		ProcessedFrames: n,
		UsableFrames:    n,
	}
}
