package axml

// systemAttrNames maps well-known android: attribute resource IDs to their
// names. Obfuscated manifests strip attribute names from the string pool
// but must keep the resource map intact for the platform to parse them, so
// the IDs are the reliable channel. Subset of frameworks/base public.xml
// covering the attributes this package queries.
var systemAttrNames = map[uint32]string{
	0x01010000: "theme",
	0x01010001: "label",
	0x01010002: "icon",
	0x01010003: "name",
	0x01010006: "permission",
	0x0101000b: "sharedUserId",
	0x0101000e: "enabled",
	0x0101000f: "debuggable",
	0x01010010: "exported",
	0x01010011: "process",
	0x0101020c: "minSdkVersion",
	0x0101021b: "versionCode",
	0x0101021c: "versionName",
	0x01010261: "sharedUserLabel",
	0x01010270: "targetSdkVersion",
	0x01010271: "maxSdkVersion",
	0x01010280: "allowBackup",
	0x010102b7: "installLocation",
	0x01010572: "compileSdkVersion",
	0x01010573: "compileSdkVersionCodename",
}
