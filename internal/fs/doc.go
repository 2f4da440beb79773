// Package fs abstracts the file operations behind blobstore.LocalStore's
// atomic write path so tests can inject failures.
//
// # Implementations
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs, closes
//     or renames of files whose names match a rule
//
// # Usage
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".rec", fs.Fault{FailOnSync: true})
//	// inject ffs into the store under test
//
// Operations take no context.Context. Local file operations are not
// interruptible at the syscall level.
package fs
