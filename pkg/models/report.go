package models

import "time"

// InspectionReport aggregates everything the inspector extracts from one
// APK: manifest facts, archive facts, and signing material.
type InspectionReport struct {
	FilePath   string `json:"file_path" yaml:"file_path"`
	Size       int64  `json:"size" yaml:"size"`
	SHA256     string `json:"sha256" yaml:"sha256"`
	ParsedWith string `json:"parsed_with,omitempty" yaml:"parsed_with,omitempty"`

	PackageID    string `json:"package_id" yaml:"package_id"`
	AppLabel     string `json:"app_label,omitempty" yaml:"app_label,omitempty"`
	VersionName  string `json:"version_name,omitempty" yaml:"version_name,omitempty"`
	VersionCode  int64  `json:"version_code,omitempty" yaml:"version_code,omitempty"`
	MinSDK       int    `json:"min_sdk" yaml:"min_sdk"`
	TargetSDK    int    `json:"target_sdk" yaml:"target_sdk"`
	MaxSDK       int    `json:"max_sdk,omitempty" yaml:"max_sdk,omitempty"`
	SharedUserID string `json:"shared_user_id,omitempty" yaml:"shared_user_id,omitempty"`

	MainActivities []string `json:"main_activities,omitempty" yaml:"main_activities,omitempty"`
	Activities     []string `json:"activities,omitempty" yaml:"activities,omitempty"`
	Permissions    []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Features       []string `json:"features,omitempty" yaml:"features,omitempty"`
	MultiDex       bool     `json:"multi_dex" yaml:"multi_dex"`

	Signatures      []SignatureScheme `json:"signatures,omitempty" yaml:"signatures,omitempty"`
	SignatureErrors []string          `json:"signature_errors,omitempty" yaml:"signature_errors,omitempty"`
}

// SignatureScheme is one signing scheme found in the APK.
type SignatureScheme struct {
	Scheme  string       `json:"scheme" yaml:"scheme"`
	BlockID string       `json:"block_id,omitempty" yaml:"block_id,omitempty"`
	Signers []SignerInfo `json:"signers,omitempty" yaml:"signers,omitempty"`
}

// SignerInfo is one signer within a scheme.
type SignerInfo struct {
	AlgorithmIDs []string          `json:"algorithm_ids,omitempty" yaml:"algorithm_ids,omitempty"`
	MinSDK       uint32            `json:"min_sdk,omitempty" yaml:"min_sdk,omitempty"`
	MaxSDK       uint32            `json:"max_sdk,omitempty" yaml:"max_sdk,omitempty"`
	Certificates []CertificateInfo `json:"certificates" yaml:"certificates"`
}

// CertificateInfo is the reported view of one signing certificate.
type CertificateInfo struct {
	Subject            string    `json:"subject" yaml:"subject"`
	Issuer             string    `json:"issuer" yaml:"issuer"`
	SerialNumber       string    `json:"serial_number" yaml:"serial_number"`
	SignatureAlgorithm string    `json:"signature_algorithm" yaml:"signature_algorithm"`
	NotBefore          time.Time `json:"not_before" yaml:"not_before"`
	NotAfter           time.Time `json:"not_after" yaml:"not_after"`
	MD5                string    `json:"md5" yaml:"md5"`
	SHA1               string    `json:"sha1" yaml:"sha1"`
	SHA256             string    `json:"sha256" yaml:"sha256"`
}
