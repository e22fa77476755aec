package objectstore

import "testing"

func TestSplitS3URL(t *testing.T) {
	tests := []struct {
		url     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://docs/report.pdf", "docs", "report.pdf", false},
		{"s3://docs/nested/path/file.docx", "docs", "nested/path/file.docx", false},
		{"s3://docs/", "", "", true},
		{"s3://docs", "", "", true},
		{"https://docs/report.pdf", "", "", true},
		{"://bad", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			bucket, key, err := splitS3URL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q/%q", bucket, key)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("got %q/%q, want %q/%q", bucket, key, tt.bucket, tt.key)
			}
		})
	}
}
