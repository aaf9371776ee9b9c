package axml

import "strconv"

// Attr is one attribute on a manifest element, with its value already
// resolved to a typed form.
type Attr struct {
	Namespace string
	Name      string
	Value     Value
}

// Node is one element of the decoded manifest tree. Each node owns its
// children outright; the tree is immutable after decode.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
}

// Attr returns the value of the named attribute, ignoring namespace.
func (n *Node) Attr(name string) (Value, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Value{}, false
}

// Child returns the first direct child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Name == tag {
			return c
		}
	}
	return nil
}

// walk visits n and its descendants in document (pre-) order until fn
// returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// Manifest is a decoded AndroidManifest.xml.
type Manifest struct {
	Root *Node
}

// DefaultMinSDK is what the platform assumes when a manifest declares no
// <uses-sdk> element.
const DefaultMinSDK = 1

// Attr returns the named attribute from the root element (when tag matches
// the root) or from the first direct child with that tag. Covers the
// <manifest>, <uses-sdk> and <application> facts.
func (m *Manifest) Attr(tag, name string) (Value, bool) {
	if m.Root.Name == tag {
		return m.Root.Attr(name)
	}
	if c := m.Root.Child(tag); c != nil {
		return c.Attr(name)
	}
	return Value{}, false
}

// AllAttrs collects the named attribute from every element with the given
// tag, anywhere in the tree, in document order.
func (m *Manifest) AllAttrs(tag, name string) []Value {
	var out []Value
	m.Root.walk(func(n *Node) bool {
		if n.Name == tag {
			if v, ok := n.Attr(name); ok {
				out = append(out, v)
			}
		}
		return true
	})
	return out
}

// PackageName returns the package attribute of the root <manifest>
// element. Its absence is a MissingFieldError: a package has no identity
// without it.
func (m *Manifest) PackageName() (string, error) {
	if m.Root.Name != "manifest" {
		return "", &MalformedManifestError{Reason: "root element is not <manifest>"}
	}
	v, ok := m.Root.Attr("package")
	if !ok || v.String() == "" {
		return "", &MissingFieldError{Field: "package attribute"}
	}
	return v.String(), nil
}

// MinSDKVersion returns <uses-sdk android:minSdkVersion>. A manifest
// without the element or attribute targets API 1, the installer default;
// that is a valid answer, not an error.
func (m *Manifest) MinSDKVersion() int {
	return m.sdkVersion("minSdkVersion", DefaultMinSDK)
}

// TargetSDKVersion returns <uses-sdk android:targetSdkVersion>, falling
// back to the minimum SDK the way the platform does.
func (m *Manifest) TargetSDKVersion() int {
	return m.sdkVersion("targetSdkVersion", m.MinSDKVersion())
}

// MaxSDKVersion returns <uses-sdk android:maxSdkVersion>, or 0 when
// undeclared.
func (m *Manifest) MaxSDKVersion() int {
	return m.sdkVersion("maxSdkVersion", 0)
}

func (m *Manifest) sdkVersion(attr string, def int) int {
	v, ok := m.Attr("uses-sdk", attr)
	if !ok {
		return def
	}
	switch v.Kind {
	case KindInt:
		return int(v.Int())
	case KindString:
		// Codename releases write the SDK as a string.
		if n, err := strconv.Atoi(v.Str); err == nil {
			return n
		}
	}
	return def
}

// ApplicationLabel returns <application android:label>. The value may be a
// plain string or an unresolved resource reference; it is returned as the
// typed value either way.
func (m *Manifest) ApplicationLabel() (Value, error) {
	v, ok := m.Attr("application", "label")
	if !ok {
		return Value{}, &MissingFieldError{Field: "application label"}
	}
	return v, nil
}

// MainActivities returns the android:name of every launchable activity in
// document order: an <activity> or <activity-alias> under <application>
// that is not disabled and declares an <intent-filter> with the MAIN
// action plus the LAUNCHER or INFO category, the rule the platform's
// getLaunchIntentForPackage applies. An empty slice means the package is
// not launchable, which is a valid state.
func (m *Manifest) MainActivities() []string {
	var out []string
	for _, app := range m.Root.Children {
		if app.Name != "application" {
			continue
		}
		for _, activity := range app.Children {
			if activity.Name != "activity" && activity.Name != "activity-alias" {
				continue
			}
			if v, ok := activity.Attr("enabled"); ok && v.String() == "false" {
				continue
			}
			if !hasLaunchFilter(activity) {
				continue
			}
			if name, ok := activity.Attr("name"); ok {
				out = append(out, name.String())
			}
		}
	}
	return out
}

func hasLaunchFilter(activity *Node) bool {
	for _, filter := range activity.Children {
		if filter.Name != "intent-filter" {
			continue
		}
		var main, launcher bool
		for _, c := range filter.Children {
			name, ok := c.Attr("name")
			if !ok {
				continue
			}
			switch c.Name {
			case "action":
				if name.String() == "android.intent.action.MAIN" {
					main = true
				}
			case "category":
				if s := name.String(); s == "android.intent.category.LAUNCHER" || s == "android.intent.category.INFO" {
					launcher = true
				}
			}
			if main && launcher {
				return true
			}
		}
	}
	return false
}
