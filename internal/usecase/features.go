package usecase

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/chiru781/cursior/internal/domain"
)

var lineSuffix = regexp.MustCompile(`:\d+$`)

// ListFeatures parses every *.feature file under paths (files or
// directories, relative to fsys). An empty paths list means the whole fsys.
// Files that fail to parse are returned with ParseError set.
func ListFeatures(fsys fs.FS, paths []string) ([]domain.FeatureInfo, error) {
	if fsys == nil {
		return nil, &domain.OpError{Op: "features.list", Kind: domain.KindInvalidConfig, Err: errors.New("no feature source configured")}
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := map[string]bool{}
	var files []string
	for _, p := range paths {
		p = path.Clean(lineSuffix.ReplaceAllString(strings.TrimSpace(p), ""))
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return nil, &domain.OpError{Op: "features.list", Kind: domain.KindNotFound, Path: p, Err: err}
		}
		if !info.IsDir() {
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
			continue
		}
		err = fs.WalkDir(fsys, p, func(name string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(name, ".feature") || seen[name] {
				return nil
			}
			seen[name] = true
			files = append(files, name)
			return nil
		})
		if err != nil {
			return nil, &domain.OpError{Op: "features.walk", Kind: domain.KindExecution, Path: p, Err: err}
		}
	}
	sort.Strings(files)

	out := make([]domain.FeatureInfo, 0, len(files))
	for _, f := range files {
		out = append(out, parseFeature(fsys, f))
	}
	return out, nil
}

func parseFeature(fsys fs.FS, name string) domain.FeatureInfo {
	info := domain.FeatureInfo{Path: name}
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		info.ParseError = err.Error()
		return info
	}
	doc, err := gherkin.ParseGherkinDocument(bytes.NewReader(b), (&messages.Incrementing{}).NewId)
	if err != nil {
		info.ParseError = err.Error()
		return info
	}
	if doc.Feature == nil {
		info.ParseError = "no Feature keyword found"
		return info
	}

	ft := doc.Feature
	info.Name = strings.TrimSpace(ft.Name)
	info.Description = strings.TrimSpace(ft.Description)
	info.Tags = tagNames(ft.Tags)
	for _, child := range ft.Children {
		if child.Background != nil {
			info.Background = append(info.Background, stepTexts(child.Background.Steps)...)
		}
		if child.Scenario != nil {
			info.Scenarios = append(info.Scenarios, scenarioInfo(child.Scenario))
		}
		if child.Rule != nil {
			for _, rc := range child.Rule.Children {
				if rc.Scenario != nil {
					info.Scenarios = append(info.Scenarios, scenarioInfo(rc.Scenario))
				}
			}
		}
	}
	return info
}

func scenarioInfo(sc *messages.Scenario) domain.ScenarioInfo {
	out := domain.ScenarioInfo{Name: sc.Name, Tags: tagNames(sc.Tags), Steps: stepTexts(sc.Steps)}
	if sc.Location != nil {
		out.Line = int(sc.Location.Line)
	}
	for _, ex := range sc.Examples {
		out.Examples += len(ex.TableBody)
	}
	return out
}

func stepTexts(steps []*messages.Step) []string {
	out := make([]string, 0, len(steps))
	for _, st := range steps {
		out = append(out, st.Text)
	}
	return out
}

func tagNames(tags []*messages.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

// featureErrors turns parse failures into one error per file.
func featureErrors(infos []domain.FeatureInfo) []error {
	var errs []error
	for _, f := range infos {
		if f.ParseError != "" {
			errs = append(errs, &domain.OpError{
				Op:   "features.parse",
				Kind: domain.KindInvalidConfig,
				Path: f.Path,
				Err:  fmt.Errorf("%s", f.ParseError),
			})
		}
	}
	return errs
}
