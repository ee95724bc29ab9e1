package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rohmanhakim/cfcli/internal/metadata"
	"github.com/rohmanhakim/cfcli/pkg/failure"
	"github.com/rohmanhakim/cfcli/pkg/fileutil"
)

// Problem identifies the file being generated.
type Problem struct {
	ContestID int
	Index     string
	URL       string
}

// WriteResult says where a file went and whether an existing one was kept.
type WriteResult struct {
	Path    string
	Skipped bool
}

// Scaffolder writes solution skeletons and statement files. Existing files
// are left alone unless force is set.
type Scaffolder struct {
	templateDir string
	outputDir   string
	force       bool
	now         func() time.Time
	sink        metadata.MetadataSink
}

func NewScaffolder(templateDir, outputDir string, sink metadata.MetadataSink) *Scaffolder {
	if sink == nil {
		sink = &metadata.NoopSink{}
	}
	return &Scaffolder{
		templateDir: templateDir,
		outputDir:   outputDir,
		now:         time.Now,
		sink:        sink,
	}
}

func (s *Scaffolder) WithForce(force bool) *Scaffolder {
	s.force = force
	return s
}

func (s *Scaffolder) WithClock(now func() time.Time) *Scaffolder {
	s.now = now
	return s
}

func (s *Scaffolder) TemplatePath() string {
	return filepath.Join(s.templateDir, TemplateFileName)
}

// EnsureTemplate writes DefaultTemplate when the template directory has no
// template and returns the template contents.
func (s *Scaffolder) EnsureTemplate() ([]byte, failure.ClassifiedError) {
	path := s.TemplatePath()
	if fileutil.FileExists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			scaffoldErr := &ScaffoldError{Message: err.Error(), Cause: ErrCauseTemplateRead}
			s.recordError("EnsureTemplate", scaffoldErr, path)
			return nil, scaffoldErr
		}
		return data, nil
	}

	if err := fileutil.EnsureDir(s.templateDir); err != nil {
		scaffoldErr := &ScaffoldError{Message: err.Error(), Cause: ErrCauseTemplateCreate}
		s.recordError("EnsureTemplate", scaffoldErr, path)
		return nil, scaffoldErr
	}
	if err := fileutil.WriteFileAtomic(path, []byte(DefaultTemplate), 0o644); err != nil {
		scaffoldErr := &ScaffoldError{Message: err.Error(), Cause: ErrCauseTemplateCreate}
		s.recordError("EnsureTemplate", scaffoldErr, path)
		return nil, scaffoldErr
	}
	s.sink.RecordArtifact(metadata.ArtifactTemplate, path, []metadata.Attribute{})
	return []byte(DefaultTemplate), nil
}

// Generate writes Contest{id}_{INDEX}.cpp: the header followed by the
// template.
func (s *Scaffolder) Generate(p Problem) (WriteResult, failure.ClassifiedError) {
	index, err := s.checkProblem(p.ContestID, p.Index)
	if err != nil {
		return WriteResult{}, err
	}

	path := filepath.Join(s.outputDir, SourceFileName(p.ContestID, index))
	if !s.force && fileutil.FileExists(path) {
		return WriteResult{Path: path, Skipped: true}, nil
	}

	tmpl, err := s.EnsureTemplate()
	if err != nil {
		return WriteResult{}, err
	}

	content := Header(p.ContestID, index, p.URL, s.now()) + "\n" + string(tmpl)
	if err := s.write(path, []byte(content)); err != nil {
		return WriteResult{}, err
	}
	s.sink.RecordArtifact(metadata.ArtifactSource, path, problemAttrs(p.ContestID, index))
	return WriteResult{Path: path}, nil
}

// WriteStatement stores a rendered statement next to the generated source.
func (s *Scaffolder) WriteStatement(contestID int, index string, content []byte) (WriteResult, failure.ClassifiedError) {
	index, err := s.checkProblem(contestID, index)
	if err != nil {
		return WriteResult{}, err
	}

	path := filepath.Join(s.outputDir, StatementFileName(contestID, index))
	if !s.force && fileutil.FileExists(path) {
		return WriteResult{Path: path, Skipped: true}, nil
	}
	if err := s.write(path, content); err != nil {
		return WriteResult{}, err
	}
	s.sink.RecordArtifact(metadata.ArtifactStatement, path, problemAttrs(contestID, index))
	return WriteResult{Path: path}, nil
}

func (s *Scaffolder) checkProblem(contestID int, rawIndex string) (string, failure.ClassifiedError) {
	if contestID <= 0 {
		return "", &ScaffoldError{
			Message: fmt.Sprintf("%d: contest id must be positive", contestID),
			Cause:   ErrCauseInvalidContest,
		}
	}
	return NormalizeIndex(rawIndex)
}

func (s *Scaffolder) write(path string, content []byte) failure.ClassifiedError {
	if err := fileutil.EnsureDir(s.outputDir); err != nil {
		scaffoldErr := &ScaffoldError{Message: err.Error(), Cause: ErrCauseWriteSource}
		s.recordError("write", scaffoldErr, path)
		return scaffoldErr
	}
	if err := fileutil.WriteFileAtomic(path, content, 0o644); err != nil {
		scaffoldErr := &ScaffoldError{Message: err.Error(), Cause: ErrCauseWriteSource}
		s.recordError("write", scaffoldErr, path)
		return scaffoldErr
	}
	return nil
}

func (s *Scaffolder) recordError(action string, err *ScaffoldError, path string) {
	s.sink.RecordError(
		time.Now(),
		"scaffold",
		action,
		metadata.CauseStorageFailure,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, path),
		},
	)
}

func problemAttrs(contestID int, index string) []metadata.Attribute {
	return []metadata.Attribute{
		metadata.NewAttr(metadata.AttrContestID, strconv.Itoa(contestID)),
		metadata.NewAttr(metadata.AttrProblemIndex, index),
	}
}
