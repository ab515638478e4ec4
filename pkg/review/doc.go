// Package review gates community installs on template review.
//
// Community templates are maintainer-written build recipes, so vuru
// shows each one to the user before trusting it. A first install
// presents the full template; a later install presents a unified line
// diff against the last copy the user accepted. Accepted copies live
// as plain files under the cache directory, one per package.
//
// This package classifies and renders changes. Prompting, paging and
// color belong to the CLI.
package review
