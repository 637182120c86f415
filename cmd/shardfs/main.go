// Command shardfs runs single storage operations against a sharded
// backend described by a configuration file. It exists for inspecting
// and maintaining sharded trees without writing a program against the
// library.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/shardfs/internal/logger"
	"github.com/marmos91/shardfs/pkg/config"
	"github.com/marmos91/shardfs/pkg/shard"
	"github.com/marmos91/shardfs/pkg/storage"
)

const usage = `Usage: shardfs [-config FILE] COMMAND [ARGS]

Commands:
  init [-force]        write an annotated default config file
  put PATH [FILE]      write FILE (or stdin) to the logical PATH
  cat PATH             print the content of the logical PATH
  ls [-r] [PATH]       list a logical directory (-r: recursive)
  stat PATH            print metadata for the logical PATH
  size PATH            print the file size in bytes
  mime PATH            print the detected mime type
  mv SRC DST           rename a logical file
  cp SRC DST           copy a logical file
  rm PATH              delete a logical file
  mkdir PATH           create a logical directory
  rmdir PATH           delete a logical directory and its contents
  physical [-dir] PATH print the sharded physical path for PATH
`

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// init runs before any config is loaded; it writes the file the
	// other commands read.
	if flag.Arg(0) == "init" {
		if err := runInit(flag.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "shardfs: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shardfs: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(cfg.Logging.Level)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		fmt.Fprintf(os.Stderr, "shardfs: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sharded, err := config.CreateShardedBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shardfs: %v\n", err)
		os.Exit(1)
	}
	defer sharded.Close()

	if err := run(ctx, sharded, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "shardfs: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, sharded *shard.Sharded, args []string) error {
	command, args := args[0], args[1:]

	switch command {
	case "put":
		return runPut(ctx, sharded, args)
	case "cat":
		return runCat(ctx, sharded, args)
	case "ls":
		return runList(ctx, sharded, args)
	case "stat":
		return runStat(ctx, sharded, args)
	case "size":
		return runSize(ctx, sharded, args)
	case "mime":
		return runMime(ctx, sharded, args)
	case "mv":
		return runTransfer(ctx, sharded.Move, args, "mv")
	case "cp":
		return runTransfer(ctx, sharded.Copy, args, "cp")
	case "rm":
		return runDelete(ctx, sharded, args)
	case "mkdir":
		return runMkdir(ctx, sharded, args)
	case "rmdir":
		return runRmdir(ctx, sharded, args)
	case "physical":
		return runPhysical(sharded, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := config.InitConfig(*force)
	if err != nil {
		return err
	}
	fmt.Printf("Config file written to %s\n", path)
	return nil
}

func runPut(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("put: expected PATH [FILE]")
	}

	var in io.Reader = os.Stdin
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	return sharded.Write(ctx, args[0], in, storage.WriteOptions{})
}

func runCat(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cat: expected PATH")
	}

	rc, err := sharded.ReadStream(ctx, args[0])
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(os.Stdout, rc)
	return err
}

func runList(ctx context.Context, sharded *shard.Sharded, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	recursive := fs.Bool("r", false, "list recursively")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := ""
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	entries, err := sharded.List(ctx, dir, *recursive)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		marker := ""
		if entry.IsDir() {
			marker = "/"
		}
		fmt.Printf("%s%s\n", entry.Path, marker)
	}
	return nil
}

func runStat(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("stat: expected PATH")
	}

	meta, err := sharded.Stat(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("path:       %s\n", meta.Path)
	fmt.Printf("type:       %s\n", meta.Type)
	fmt.Printf("size:       %d\n", meta.Size)
	if meta.MimeType != "" {
		fmt.Printf("mime:       %s\n", meta.MimeType)
	}
	if !meta.LastModified.IsZero() {
		fmt.Printf("modified:   %s\n", meta.LastModified.Format("2006-01-02 15:04:05"))
	}
	if meta.Visibility != "" {
		fmt.Printf("visibility: %s\n", meta.Visibility)
	}
	return nil
}

func runSize(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("size: expected PATH")
	}

	size, err := sharded.FileSize(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(size)
	return nil
}

func runMime(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("mime: expected PATH")
	}

	mime, err := sharded.MimeType(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(mime)
	return nil
}

func runTransfer(ctx context.Context, op func(context.Context, string, string) error, args []string, name string) error {
	if len(args) != 2 {
		return fmt.Errorf("%s: expected SRC DST", name)
	}
	return op(ctx, args[0], args[1])
}

func runDelete(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm: expected PATH")
	}
	return sharded.Delete(ctx, args[0])
}

func runMkdir(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("mkdir: expected PATH")
	}
	return sharded.CreateDirectory(ctx, args[0])
}

func runRmdir(ctx context.Context, sharded *shard.Sharded, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rmdir: expected PATH")
	}
	return sharded.DeleteDirectory(ctx, args[0])
}

func runPhysical(sharded *shard.Sharded, args []string) error {
	fs := flag.NewFlagSet("physical", flag.ContinueOnError)
	dirRole := fs.Bool("dir", false, "treat the final segment as a directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("physical: expected PATH")
	}

	phys, err := sharded.PhysicalPath(fs.Arg(0), *dirRole)
	if err != nil {
		return err
	}
	fmt.Println(phys)
	return nil
}
