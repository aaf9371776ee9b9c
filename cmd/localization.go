package cmd

import "github.com/apkscope/apkscope/internal/i18n"

// applyCommandLocalization updates command and flag descriptions after
// i18n is initialized.
func applyCommandLocalization() {
	rootCmd.Short = i18n.T("cmd.root.short")
	rootCmd.Long = i18n.T("cmd.root.long")

	if flag := rootCmd.PersistentFlags().Lookup("config"); flag != nil {
		flag.Usage = i18n.T("flags.config")
	}
	if flag := rootCmd.PersistentFlags().Lookup("lang"); flag != nil {
		flag.Usage = i18n.T("flags.lang")
	}
	if flag := rootCmd.PersistentFlags().Lookup("output"); flag != nil {
		flag.Usage = i18n.T("flags.output")
	}
	if flag := rootCmd.PersistentFlags().Lookup("verbose"); flag != nil {
		flag.Usage = i18n.T("flags.verbose")
	}

	inspectCmd.Short = i18n.T("cmd.inspect.short")
	inspectCmd.Long = i18n.T("cmd.inspect.long")

	manifestCmd.Short = i18n.T("cmd.manifest.short")
	manifestCmd.Long = i18n.T("cmd.manifest.long")

	signaturesCmd.Short = i18n.T("cmd.signatures.short")
	signaturesCmd.Long = i18n.T("cmd.signatures.long")

	scanCmd.Short = i18n.T("cmd.scan.short")
	scanCmd.Long = i18n.T("cmd.scan.long")

	versionCmd.Short = i18n.T("cmd.version.short")
}
