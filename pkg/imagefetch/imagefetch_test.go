package imagefetch

import "testing"

func TestIsS3Reference(t *testing.T) {
	cases := map[string]bool{
		"s3://bucket/key/image.qcow2": true,
		"docker.io/library/nginx":     false,
		"":                            false,
		"s3:/bucket/key":              false,
	}
	for image, want := range cases {
		if got := IsS3Reference(image); got != want {
			t.Errorf("IsS3Reference(%q) = %v, want %v", image, got, want)
		}
	}
}

func TestParseS3Reference(t *testing.T) {
	bucket, key, err := parseS3Reference("s3://my-bucket/images/firewall.qcow2")
	if err != nil {
		t.Fatalf("parseS3Reference failed: %v", err)
	}
	if bucket != "my-bucket" {
		t.Errorf("bucket = %q, want my-bucket", bucket)
	}
	if key != "images/firewall.qcow2" {
		t.Errorf("key = %q, want images/firewall.qcow2", key)
	}
}

func TestParseS3ReferenceRejectsMalformed(t *testing.T) {
	cases := []string{
		"s3://bucket-only",
		"s3:///key-only",
		"s3://bucket/",
	}
	for _, image := range cases {
		if _, _, err := parseS3Reference(image); err == nil {
			t.Errorf("parseS3Reference(%q) should have failed", image)
		}
	}
}
