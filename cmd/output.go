package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apkscope/apkscope/pkg/models"
)

// render writes v as json or yaml. Text rendering is per-command; the
// structured formats are uniform.
func render(w io.Writer, v interface{}, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printReport(w io.Writer, r *models.InspectionReport) {
	fmt.Fprintf(w, "Package:      %s\n", r.PackageID)
	if r.AppLabel != "" {
		fmt.Fprintf(w, "Label:        %s\n", r.AppLabel)
	}
	if r.VersionName != "" || r.VersionCode != 0 {
		fmt.Fprintf(w, "Version:      %s (%d)\n", r.VersionName, r.VersionCode)
	}
	fmt.Fprintf(w, "SDK:          min %d, target %d", r.MinSDK, r.TargetSDK)
	if r.MaxSDK != 0 {
		fmt.Fprintf(w, ", max %d", r.MaxSDK)
	}
	fmt.Fprintln(w)
	if r.SharedUserID != "" {
		fmt.Fprintf(w, "SharedUserId: %s\n", r.SharedUserID)
	}
	if len(r.MainActivities) > 0 {
		fmt.Fprintf(w, "Launchable:   %s\n", strings.Join(r.MainActivities, ", "))
	}
	if r.MultiDex {
		fmt.Fprintf(w, "MultiDex:     yes\n")
	}
	fmt.Fprintf(w, "Size:         %d bytes\n", r.Size)
	fmt.Fprintf(w, "SHA-256:      %s\n", r.SHA256)
	if len(r.Permissions) > 0 {
		fmt.Fprintf(w, "Permissions:  %d\n", len(r.Permissions))
		for _, p := range r.Permissions {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	if len(r.Features) > 0 {
		fmt.Fprintf(w, "Features:\n")
		for _, f := range r.Features {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	printSchemes(w, r.Signatures, r.SignatureErrors)
}

func printSchemes(w io.Writer, schemes []models.SignatureScheme, softErrs []string) {
	if len(schemes) == 0 && len(softErrs) == 0 {
		fmt.Fprintln(w, "Signatures:   none")
		return
	}
	fmt.Fprintln(w, "Signatures:")
	for _, s := range schemes {
		if s.BlockID != "" {
			fmt.Fprintf(w, "  %s (block %s)\n", s.Scheme, s.BlockID)
		} else {
			fmt.Fprintf(w, "  %s\n", s.Scheme)
		}
		for i, signer := range s.Signers {
			fmt.Fprintf(w, "    signer #%d\n", i+1)
			if len(signer.AlgorithmIDs) > 0 {
				fmt.Fprintf(w, "      algorithms: %s\n", strings.Join(signer.AlgorithmIDs, ", "))
			}
			if signer.MinSDK != 0 || signer.MaxSDK != 0 {
				fmt.Fprintf(w, "      sdk range:  %d-%d\n", signer.MinSDK, signer.MaxSDK)
			}
			for _, cert := range signer.Certificates {
				fmt.Fprintf(w, "      subject:    %s\n", cert.Subject)
				fmt.Fprintf(w, "      issuer:     %s\n", cert.Issuer)
				fmt.Fprintf(w, "      valid:      %s to %s\n",
					cert.NotBefore.Format("2006-01-02"), cert.NotAfter.Format("2006-01-02"))
				fmt.Fprintf(w, "      sha256:     %s\n", cert.SHA256)
			}
		}
	}
	for _, e := range softErrs {
		fmt.Fprintf(w, "  warning: %s\n", e)
	}
}
