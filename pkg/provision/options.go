package provision

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type Options struct {
	Dir            string          `json:"dir,omitempty"`
	Workers        int             `json:"workers,omitempty"`
	Attempts       int             `json:"attempts,omitempty"`
	RetryDelay     metav1.Duration `json:"retryDelay,omitempty"`
	AttemptTimeout metav1.Duration `json:"attemptTimeout,omitempty"`
}

func DefaultOptions() *Options {
	return &Options{
		Dir:            "models",
		Workers:        3,
		Attempts:       3,
		RetryDelay:     metav1.Duration{Duration: 500 * time.Millisecond},
		AttemptTimeout: metav1.Duration{Duration: 2 * time.Minute},
	}
}
