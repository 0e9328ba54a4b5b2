package training

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
)

// DatasetUploader publishes a local dataset file and returns its URI.
type DatasetUploader interface {
	Upload(ctx context.Context, runID, localPath, contentType string) (string, error)
	URI(runID, name string) string
}

// JobConfig holds the cluster side settings of a training Job.
type JobConfig struct {
	Namespace   string
	Image       string
	CPU         string
	Memory      string
	GPUs        int64
	GPUResource string
	TTL         time.Duration
}

// JobConfigFrom maps application config onto a JobConfig.
func JobConfigFrom(cfg common.TrainingConfig) JobConfig {
	return JobConfig{
		Namespace:   cfg.Namespace,
		Image:       cfg.Image,
		CPU:         cfg.CPU,
		Memory:      cfg.Memory,
		GPUs:        cfg.GPUs,
		GPUResource: "nvidia.com/gpu",
		TTL:         cfg.JobTTL,
	}
}

// K8sJobTrainer uploads the dataset and submits a one-shot fine-tuning Job.
// Fit returns once the Job is created; it does not wait for completion.
type K8sJobTrainer struct {
	client kubernetes.Interface
	store  DatasetUploader
	cfg    JobConfig
	logger *slog.Logger
}

func NewK8sJobTrainer(client kubernetes.Interface, store DatasetUploader, cfg JobConfig, logger *slog.Logger) *K8sJobTrainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &K8sJobTrainer{client: client, store: store, cfg: cfg, logger: logger}
}

// NewClientset uses kubeconfig when set and the in-cluster config otherwise.
func NewClientset(kubeconfig string) (kubernetes.Interface, error) {
	var (
		restCfg *rest.Config
		err     error
	)
	if kubeconfig != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		restCfg, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("kubernetes config: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("clientset: %w", err)
	}
	return clientset, nil
}

func (t *K8sJobTrainer) Fit(ctx context.Context, ds Dataset) (ModelRef, error) {
	runID := common.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := t.logger.With("run_id", runID)

	trainURI, err := t.store.Upload(ctx, runID, ds.TrainPath, "application/x-ndjson")
	if err != nil {
		return ModelRef{}, fmt.Errorf("upload dataset: %w", err)
	}
	manifestURI, err := t.store.Upload(ctx, runID, ds.ManifestPath, "application/json")
	if err != nil {
		return ModelRef{}, fmt.Errorf("upload manifest: %w", err)
	}
	outputURI := t.store.URI(runID, OutputDirFor("models", ds.Params.BaseModel))

	job, err := t.buildJob(runID, ds, trainURI, manifestURI, outputURI)
	if err != nil {
		return ModelRef{}, err
	}
	created, err := t.client.BatchV1().Jobs(t.cfg.Namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		logger.Error("training.job.create_failed", "error", err)
		return ModelRef{}, fmt.Errorf("create job: %w", err)
	}
	logger.Info("training.job.created", "namespace", t.cfg.Namespace, "job", created.Name, "image", t.cfg.Image, "dataset", trainURI)
	return ModelRef{Name: ds.Params.BaseModel, Location: outputURI, JobName: created.Name}, nil
}

func (t *K8sJobTrainer) buildJob(runID string, ds Dataset, trainURI, manifestURI, outputURI string) (*batchv1.Job, error) {
	requests := corev1.ResourceList{}
	if t.cfg.CPU != "" {
		q, err := resource.ParseQuantity(t.cfg.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu quantity: %w", err)
		}
		requests[corev1.ResourceCPU] = q
	}
	if t.cfg.Memory != "" {
		q, err := resource.ParseQuantity(t.cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("memory quantity: %w", err)
		}
		requests[corev1.ResourceMemory] = q
	}
	limits := requests.DeepCopy()
	if t.cfg.GPUs > 0 && t.cfg.GPUResource != "" {
		rn := corev1.ResourceName(t.cfg.GPUResource)
		limits[rn] = *resource.NewQuantity(t.cfg.GPUs, resource.DecimalSI)
	}

	p := ds.Params
	env := []corev1.EnvVar{
		{Name: "RUN_ID", Value: runID},
		{Name: "BASE_MODEL", Value: p.BaseModel},
		{Name: "LABELS", Value: strings.Join(ds.Labels, ",")},
		{Name: "BATCH_SIZE", Value: strconv.Itoa(p.BatchSize)},
		{Name: "EPOCHS", Value: strconv.Itoa(p.Epochs)},
		{Name: "LEARNING_RATE", Value: strconv.FormatFloat(p.LearningRate, 'g', -1, 64)},
		{Name: "ADD_PREFIX_SPACE", Value: strconv.FormatBool(p.AddPrefixSpace)},
		{Name: "DATASET_URI", Value: trainURI},
		{Name: "MANIFEST_URI", Value: manifestURI},
		{Name: "OUTPUT_URI", Value: outputURI},
	}

	backoff := int32(0)
	ttl := int32(t.cfg.TTL / time.Second)
	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "train-ner-" + shortID(runID),
			Namespace: t.cfg.Namespace,
			Labels: map[string]string{
				"app":    "project-ner-trainer",
				"run-id": shortID(runID),
			},
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            &backoff,
			TTLSecondsAfterFinished: &ttl,
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{{
						Name:  "trainer",
						Image: t.cfg.Image,
						Env:   env,
						Resources: corev1.ResourceRequirements{
							Requests: requests,
							Limits:   limits,
						},
					}},
				},
			},
		},
	}
	return job, nil
}

// shortID keeps Job names DNS-1123 safe.
func shortID(runID string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, runID)
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
