package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apkscope/apkscope/pkg/apk"
)

// manifestFacts is the manifest-only slice of a report.
type manifestFacts struct {
	PackageID      string   `json:"package_id" yaml:"package_id"`
	AppLabel       string   `json:"app_label,omitempty" yaml:"app_label,omitempty"`
	VersionName    string   `json:"version_name,omitempty" yaml:"version_name,omitempty"`
	VersionCode    int64    `json:"version_code,omitempty" yaml:"version_code,omitempty"`
	MinSDK         int      `json:"min_sdk" yaml:"min_sdk"`
	TargetSDK      int      `json:"target_sdk" yaml:"target_sdk"`
	MaxSDK         int      `json:"max_sdk,omitempty" yaml:"max_sdk,omitempty"`
	SharedUserID   string   `json:"shared_user_id,omitempty" yaml:"shared_user_id,omitempty"`
	MainActivities []string `json:"main_activities,omitempty" yaml:"main_activities,omitempty"`
	Activities     []string `json:"activities,omitempty" yaml:"activities,omitempty"`
	Permissions    []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Features       []string `json:"features,omitempty" yaml:"features,omitempty"`
}

var manifestCmd = &cobra.Command{
	Use:   "manifest [apk-file]",
	Short: "Decoded manifest facts for one APK",
	Long:  `Decode the binary AndroidManifest.xml and print its declared facts.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg, err := apk.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}

		facts := manifestFacts{}
		if facts.PackageID, err = pkg.PackageName(); err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}
		if label, err := pkg.ApplicationLabel(); err == nil {
			facts.AppLabel = label.String()
		}
		facts.VersionName, _ = pkg.VersionName()
		facts.VersionCode, _ = pkg.VersionCode()
		facts.MinSDK, _ = pkg.MinSDKVersion()
		facts.TargetSDK, _ = pkg.TargetSDKVersion()
		facts.MaxSDK, _ = pkg.MaxSDKVersion()
		facts.SharedUserID, _ = pkg.SharedUserID()
		facts.MainActivities, _ = pkg.MainActivities()
		facts.Activities, _ = pkg.Activities()
		facts.Permissions, _ = pkg.Permissions()
		facts.Features, _ = pkg.Features()

		if cfg.Output.Format == "text" {
			printManifestFacts(&facts)
			return nil
		}
		return render(os.Stdout, &facts, cfg.Output.Format)
	},
}

func printManifestFacts(f *manifestFacts) {
	fmt.Printf("Package:      %s\n", f.PackageID)
	if f.AppLabel != "" {
		fmt.Printf("Label:        %s\n", f.AppLabel)
	}
	if f.VersionName != "" || f.VersionCode != 0 {
		fmt.Printf("Version:      %s (%d)\n", f.VersionName, f.VersionCode)
	}
	fmt.Printf("SDK:          min %d, target %d", f.MinSDK, f.TargetSDK)
	if f.MaxSDK != 0 {
		fmt.Printf(", max %d", f.MaxSDK)
	}
	fmt.Println()
	if f.SharedUserID != "" {
		fmt.Printf("SharedUserId: %s\n", f.SharedUserID)
	}
	if len(f.MainActivities) > 0 {
		fmt.Printf("Launchable:   %s\n", strings.Join(f.MainActivities, ", "))
	}
	if len(f.Activities) > 0 {
		fmt.Printf("Activities:   %d\n", len(f.Activities))
	}
	for _, p := range f.Permissions {
		fmt.Printf("  uses-permission %s\n", p)
	}
	for _, ft := range f.Features {
		fmt.Printf("  uses-feature %s\n", ft)
	}
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
