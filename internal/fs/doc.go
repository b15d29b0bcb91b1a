// Package fs provides the filesystem abstraction used by the local blob store.
//
// Production code uses [Default] ([LocalFS]). Tests wrap it in [FaultyFS] to
// inject write, sync, close or link failures and check that partial records
// never become visible:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("_name", fs.Fault{FailOnSync: true})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Operations take no context.Context. Local file operations are short and not
// interruptible at the syscall level; remote backends live in blobstore.
package fs
