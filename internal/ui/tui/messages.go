package tui

import (
	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/usecase"
)

type featuresLoadedMsg struct {
	features []domain.FeatureInfo
	err      error
}

type runFinishedMsg struct {
	path string
	out  usecase.RunOutcome
	err  error
}
