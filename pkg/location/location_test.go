package location

import (
	"reflect"
	"testing"

	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/types"
)

var entry = types.Entry{Name: "diabetes_model", RemoteName: "final_no_age_model.pkl", Format: types.FormatPickle}

func TestStrategy_Locate(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		want     Location
		wantErr  bool
	}{
		{
			name:     "release tag default store",
			strategy: ReleaseTag{Repo: "miahangelo/thesis-project-be", Tag: "models-v1.0"},
			want: Location{
				Provider: ProviderHTTP,
				URL:      "https://github.com/miahangelo/thesis-project-be/releases/download/models-v1.0/final_no_age_model.pkl",
			},
		},
		{
			name:     "release tag custom store",
			strategy: ReleaseTag{Store: "http://127.0.0.1:8080/", Repo: "org/repo", Tag: "v2"},
			want: Location{
				Provider: ProviderHTTP,
				URL:      "http://127.0.0.1:8080/org/repo/releases/download/v2/final_no_age_model.pkl",
			},
		},
		{
			name:     "direct url trailing slash",
			strategy: DirectURL{Base: "https://storage.example.com/public/ml-models/"},
			want: Location{
				Provider: ProviderHTTP,
				URL:      "https://storage.example.com/public/ml-models/final_no_age_model.pkl",
			},
		},
		{
			name:     "direct url host only",
			strategy: DirectURL{Base: "https://storage.example.com"},
			want: Location{
				Provider: ProviderHTTP,
				URL:      "https://storage.example.com/final_no_age_model.pkl",
			},
		},
		{
			name:     "direct file mirror",
			strategy: DirectURL{Base: "file:///srv/mirror"},
			want: Location{
				Provider: ProviderFile,
				URL:      "file:///srv/mirror/final_no_age_model.pkl",
			},
		},
		{
			name:     "direct unsupported scheme",
			strategy: DirectURL{Base: "ftp://example.com"},
			wantErr:  true,
		},
		{
			name:     "s3",
			strategy: S3Bucket{Bucket: "ml-models", Prefix: "v1"},
			want: Location{
				Provider: ProviderS3,
				URL:      "s3://ml-models/v1/final_no_age_model.pkl",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.strategy.Locate(entry)
			if (err != nil) != tt.wantErr {
				t.Errorf("Locate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Locate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Strategy
		wantErr bool
	}{
		{
			name: "direct wins over release",
			opts: Options{BaseURL: "https://storage.example.com", Repo: "org/repo", Tag: "v1"},
			want: DirectURL{Base: "https://storage.example.com"},
		},
		{
			name: "s3 wins over release",
			opts: Options{S3Bucket: "models", S3Prefix: "v1", Repo: "org/repo", Tag: "v1"},
			want: S3Bucket{Bucket: "models", Prefix: "v1"},
		},
		{
			name: "release",
			opts: Options{Repo: "org/repo", Tag: "v1"},
			want: ReleaseTag{Repo: "org/repo", Tag: "v1"},
		},
		{
			name:    "release without tag",
			opts:    Options{Repo: "org/repo"},
			wantErr: true,
		},
		{
			name:    "nothing",
			opts:    Options{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromOptions(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromOptions() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !modelxerrors.IsErrCode(err, modelxerrors.ErrCodeConfigInvalid) {
				t.Errorf("FromOptions() error = %v, want CONFIG_INVALID", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FromOptions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitS3URL(t *testing.T) {
	bucket, key, err := SplitS3URL("s3://ml-models/v1/final_no_age_model.pkl")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "ml-models" || key != "v1/final_no_age_model.pkl" {
		t.Errorf("SplitS3URL() = %s, %s", bucket, key)
	}
	if _, _, err := SplitS3URL("https://example.com/a"); err == nil {
		t.Error("SplitS3URL() on https url, want error")
	}
}
