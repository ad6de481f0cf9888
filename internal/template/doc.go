// Package template renders provisioning script templates.
//
// Placeholders are written as {name}, where name consists of letters, digits
// and the characters _ - . /. A literal brace is written doubled: {{ renders
// as { and }} renders as }, which lets generated scripts carry JSON or YAML.
//
// Rendering is atomic: every placeholder must be bound or Execute returns an
// [UnboundPlaceholderError] and produces no text.
//
// Named templates are looked up through a [Store]. [DirStore] reads files from
// a directory, [MapStore] serves in-memory templates, and [ConfigMapStore]
// reads entries of a Kubernetes ConfigMap.
package template
