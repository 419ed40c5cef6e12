package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
	"github.com/YuminosukeSato/seedtune/report"
	"github.com/YuminosukeSato/seedtune/viz"
)

// MetricsFile is the name of the run summary written by WriteArtifacts.
const MetricsFile = "metrics.json"

type runDoc struct {
	RunID        string     `json:"run_id"`
	Started      string     `json:"started"`
	DurationMs   int64      `json:"duration_ms"`
	Seed         uint64     `json:"seed"`
	SelectMetric string     `json:"select_metric"`
	TrainSize    int        `json:"train_size"`
	TestSize     int        `json:"test_size"`
	Folds        int        `json:"folds"`
	Best         string     `json:"best_model,omitempty"`
	Models       []modelDoc `json:"models"`
}

type modelDoc struct {
	Model          string                  `json:"model"`
	Strategy       string                  `json:"strategy"`
	Configurations int                     `json:"configurations"`
	Attempts       int                     `json:"attempts"`
	Failures       int                     `json:"failures"`
	BestParams     model.Params            `json:"best_params"`
	CVMean         float64                 `json:"cv_mean"`
	CVStdErr       float64                 `json:"cv_std_err"`
	Features       []string                `json:"features"`
	Test           *metrics.Report         `json:"test"`
	ROC            map[string][][2]float64 `json:"roc"`
}

// WriteArtifacts writes metrics.json, one tuning_<model>.tsv with every
// score record, and ROC, confusion and tuning-trace PNGs per model.
func WriteArtifacts(res *Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	doc := runDoc{
		RunID:        res.RunID,
		Started:      res.Started.Format(time.RFC3339),
		DurationMs:   res.Duration.Milliseconds(),
		Seed:         res.Seed,
		SelectMetric: res.SelectMetric,
		TrainSize:    res.Train.Len(),
		TestSize:     res.Test.Len(),
		Folds:        len(res.Folds),
	}
	if best := res.Best(); best != nil {
		doc.Best = best.Name
	}

	for _, mr := range res.Models {
		md := modelDoc{
			Model:          mr.Name,
			Strategy:       mr.Tuning.Strategy,
			Configurations: len(mr.Tuning.Configs),
			Attempts:       mr.Tuning.Attempts(),
			Failures:       mr.Tuning.Failures(),
			BestParams:     mr.Best.Params,
			CVMean:         mr.Best.Mean,
			CVStdErr:       mr.Best.StdErr,
			Features:       mr.Final.Features,
			Test:           mr.Report,
			ROC:            make(map[string][][2]float64, len(mr.Curves)),
		}
		for _, c := range mr.Curves {
			pts := make([][2]float64, len(c.Points))
			for i, p := range c.Points {
				pts[i] = [2]float64{p.FPR, p.TPR}
			}
			md.ROC[c.Label] = pts
		}
		doc.Models = append(doc.Models, md)

		if err := writeModelFiles(mr, dir); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode metrics")
	}
	path := filepath.Join(dir, MetricsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	log.GetLoggerWithName("workflow").Info("artifacts written",
		log.RunIDKey, res.RunID,
		log.SourceKey, dir,
	)
	return nil
}

func writeModelFiles(mr *ModelResult, dir string) error {
	tsv := filepath.Join(dir, "tuning_"+mr.Name+".tsv")
	f, err := os.Create(tsv)
	if err != nil {
		return errors.Wrapf(err, "create %s", tsv)
	}
	if err := report.Records(f, mr.Tuning.Records); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", tsv)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tsv)
	}

	roc, err := viz.ROC(mr.Curves, "ROC: "+mr.Name)
	if err != nil {
		return err
	}
	if err := viz.Save(roc, filepath.Join(dir, "roc_"+mr.Name+".png")); err != nil {
		return err
	}

	cm, err := viz.Confusion(mr.Report.Confusion, "Confusion: "+mr.Name)
	if err != nil {
		return err
	}
	if err := viz.Save(cm, filepath.Join(dir, "confusion_"+mr.Name+".png")); err != nil {
		return err
	}

	summaries, err := mr.Tuning.Summarize(mr.Best.Metric)
	if err != nil {
		return err
	}
	m, _ := metrics.Lookup(mr.Best.Metric)
	trace, err := viz.Tuning(summaries, m.Minimize, "Tuning: "+mr.Name)
	if err != nil {
		return err
	}
	return viz.Save(trace, filepath.Join(dir, "tuning_"+mr.Name+".png"))
}
