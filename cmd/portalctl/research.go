package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/wizard"
)

// researchFile is the YAML form of a research draft. Attachments are paths relative to the file.
type researchFile struct {
	wizard.ResearchDraft `yaml:",inline"`

	Documents []string `yaml:"documents"`
	Images    []string `yaml:"images"`
}

func loadResearchDraft(fs afero.Fs, path string) (*researchFile, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var rf researchFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	rf.Normalize()

	dir := filepath.Dir(path)
	for _, list := range []*[]string{&rf.Documents, &rf.Images} {
		for i, p := range *list {
			if !filepath.IsAbs(p) {
				(*list)[i] = filepath.Join(dir, p)
			}
		}
	}
	return &rf, nil
}

// checkDraft walks the wizard steps the way the web form does and then applies the
// server's field checks.
func checkDraft(d *wizard.ResearchDraft) error {
	w := wizard.New[*model.ResearchSubmission](d)
	for w.Next() {
	}
	if !w.CanSubmit() {
		return &wizard.IncompleteError{Step: w.Step(), Title: d.StepTitle(w.Step())}
	}
	if p := d.Problems(); len(p) > 0 {
		return problemsError(p)
	}
	return nil
}

type problemsError map[string]string

func (p problemsError) Error() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("draft has problems:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, p[k])
	}
	return b.String()
}

func newResearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research",
		Short: "Research submissions",
	}

	var dryRun bool
	submit := &cobra.Command{
		Use:   "submit <draft.yaml>",
		Short: "Check a research draft and submit it with its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := loadResearchDraft(a.fs, args[0])
			if err != nil {
				return err
			}
			if err := checkDraft(&rf.ResearchDraft); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "draft is complete")
				return nil
			}

			req, err := a.provider.R(cmd.Context())
			if err != nil {
				return err
			}
			payload, err := json.Marshal(&rf.ResearchDraft)
			if err != nil {
				return err
			}
			var files []io.Closer
			defer func() {
				for _, f := range files {
					_ = f.Close()
				}
			}()
			attach := func(field string, paths []string) error {
				for _, p := range paths {
					f, err := a.fs.Open(p)
					if err != nil {
						return err
					}
					files = append(files, f)
					req.SetFileReader(field, filepath.Base(p), f)
				}
				return nil
			}
			if err := attach("documents", rf.Documents); err != nil {
				return err
			}
			if err := attach("images", rf.Images); err != nil {
				return err
			}
			if len(files) > 0 {
				req.SetMultipartFormData(map[string]string{"payload": string(payload)})
			} else {
				req.SetHeader("Content-Type", "application/json").SetBody(payload)
			}

			var out dto.SubmitResponse
			if err := a.provider.Do(req, http.MethodPost, "/research", &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %s\n", out.ID)
			return nil
		},
	}
	submit.Flags().BoolVar(&dryRun, "dry-run", false, "only check the draft")

	cmd.AddCommand(submit)
	return cmd
}
