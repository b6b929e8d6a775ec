// Package content defines the conversation data model for the generation
// workflow: stages, messages, conversations, and the hook extraction parser.
package content

import "fmt"

// Stage identifies one content-artifact type produced by a single
// generation call.
type Stage string

const (
	StageHooks       Stage = "hooks"
	StageScript      Stage = "script"
	StageShotlist    Stage = "shotlist"
	StageMusic       Stage = "music"
	StageTitles      Stage = "titles"
	StageDescription Stage = "description"
	StageTags        Stage = "tags"
	StageThumbnails  Stage = "thumbnails"
	StageBeatmap     Stage = "beatmap"
	StageCTA         Stage = "cta"
	StageTools       Stage = "tools"
)

// Stages lists every stage in workflow order.
var Stages = []Stage{
	StageHooks,
	StageScript,
	StageShotlist,
	StageMusic,
	StageTitles,
	StageDescription,
	StageTags,
	StageThumbnails,
	StageBeatmap,
	StageCTA,
	StageTools,
}

// Endpoint maps a stage to its generation endpoint suffix. The mapping is
// identity today, but the indirection is part of the backend contract and a
// new stage cannot be added without an explicit entry here.
func (s Stage) Endpoint() (string, error) {
	switch s {
	case StageHooks:
		return "hooks", nil
	case StageScript:
		return "script", nil
	case StageShotlist:
		return "shotlist", nil
	case StageMusic:
		return "music", nil
	case StageTitles:
		return "titles", nil
	case StageDescription:
		return "description", nil
	case StageTags:
		return "tags", nil
	case StageThumbnails:
		return "thumbnails", nil
	case StageBeatmap:
		return "beatmap", nil
	case StageCTA:
		return "cta", nil
	case StageTools:
		return "tools", nil
	}
	return "", fmt.Errorf("unknown stage %q", string(s))
}

// Valid reports whether s is a member of the closed stage set.
func (s Stage) Valid() bool {
	_, err := s.Endpoint()
	return err == nil
}

// ParseStage converts user input into a Stage.
func ParseStage(name string) (Stage, error) {
	s := Stage(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q (valid: hooks, script, shotlist, music, titles, description, tags, thumbnails, beatmap, cta, tools)", name)
	}
	return s, nil
}

// Label returns a human-readable name for the synthetic user turn shown in
// the transcript.
func (s Stage) Label() string {
	switch s {
	case StageHooks:
		return "viral hooks"
	case StageScript:
		return "video script"
	case StageShotlist:
		return "shot list"
	case StageMusic:
		return "music suggestions"
	case StageTitles:
		return "title ideas"
	case StageDescription:
		return "post description"
	case StageTags:
		return "tags"
	case StageThumbnails:
		return "thumbnail concepts"
	case StageBeatmap:
		return "beat map"
	case StageCTA:
		return "call to action"
	case StageTools:
		return "tool recommendations"
	}
	return string(s)
}
