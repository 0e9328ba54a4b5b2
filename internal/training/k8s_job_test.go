package training

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
)

type fakePutter struct {
	keys   []string
	bodies map[string]string
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.keys = append(f.keys, *in.Key)
	f.bodies[*in.Key] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3DatasetStoreUpload(t *testing.T) {
	local := filepath.Join(t.TempDir(), "train.jsonl")
	if err := os.WriteFile(local, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	putter := &fakePutter{}
	uri, err := NewS3DatasetStore(putter, "ml", "datasets").Upload(context.Background(), "run1", local, "application/x-ndjson")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if uri != "s3://ml/datasets/run1/train.jsonl" {
		t.Fatalf("uri = %s", uri)
	}
	if putter.bodies["datasets/run1/train.jsonl"] != "{}\n" {
		t.Fatalf("body = %q", putter.bodies["datasets/run1/train.jsonl"])
	}
}

func TestK8sJobTrainerCreatesJob(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.jsonl")
	manifest := filepath.Join(dir, "manifest.json")
	for _, p := range []string{train, manifest} {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	client := fake.NewSimpleClientset()
	putter := &fakePutter{}
	cfg := JobConfig{Namespace: "ml", Image: "trainer:1", CPU: "2", Memory: "4Gi", GPUs: 1, GPUResource: "nvidia.com/gpu", TTL: time.Hour}
	trainer := NewK8sJobTrainer(client, NewS3DatasetStore(putter, "bucket", "datasets"), cfg, nil)

	ctx := common.WithRunID(context.Background(), "3F2A9C1E-0000-4000-8000-000000000000")
	params := NewHyperparameters("bert-base-cased", 8, 3, 5e-5, "output")
	ref, err := trainer.Fit(ctx, Dataset{TrainPath: train, ManifestPath: manifest, Labels: []string{"O", "B-PROJECT", "I-PROJECT"}, Params: params})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(putter.keys) != 2 {
		t.Fatalf("expected 2 uploads, got %v", putter.keys)
	}

	jobs, err := client.BatchV1().Jobs("ml").List(context.Background(), metav1.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs.Items) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs.Items))
	}
	job := jobs.Items[0]
	if job.Name != ref.JobName || job.Name != "train-ner-3f2a9c1e0000" {
		t.Fatalf("job name = %s, ref = %s", job.Name, ref.JobName)
	}
	if *job.Spec.BackoffLimit != 0 || *job.Spec.TTLSecondsAfterFinished != 3600 {
		t.Fatalf("unexpected job spec %+v", job.Spec)
	}
	c := job.Spec.Template.Spec.Containers[0]
	env := map[string]string{}
	for _, e := range c.Env {
		env[e.Name] = e.Value
	}
	if env["BATCH_SIZE"] != "8" || env["EPOCHS"] != "3" || env["LABELS"] != "O,B-PROJECT,I-PROJECT" {
		t.Fatalf("env = %v", env)
	}
	if !strings.HasPrefix(env["DATASET_URI"], "s3://bucket/datasets/") {
		t.Fatalf("dataset uri = %s", env["DATASET_URI"])
	}
	gpu := c.Resources.Limits[corev1.ResourceName("nvidia.com/gpu")]
	if gpu.Value() != 1 {
		t.Fatalf("gpu limit = %v", gpu.String())
	}
	if job.Spec.Template.Spec.RestartPolicy != corev1.RestartPolicyNever {
		t.Fatal("restart policy must be Never")
	}
}
