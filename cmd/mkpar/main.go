package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/pulse3d/pulse/utility/par"
)

func init() {
	u, err := user.Current()
	if err != nil {
		currentUserName = "unknown"
		return
	}
	currentUserName = u.Name
}

var (
	currentUserName string
	author          = flag.String("author", currentUserName, "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the named archive into the destination directory")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dst             = flag.String("f", "out.par", "Destination file or directory")
	list            = flag.String("l", "", "List the contents of the named archive")
)

func main() {
	var opMade bool
	flag.Parse()

	if *extract != "" && *compress != "" {
		panic(errors.New("only one operation at a time"))
	}

	if *list != "" {
		opMade = true
		if err := listFiles(); err != nil {
			panic(err)
		}
	}

	if *extract != "" {
		opMade = true
		if err := extractFiles(); err != nil {
			panic(err)
		}
	}

	if *compress != "" {
		opMade = true
		if err := compressFiles(); err != nil {
			panic(err)
		}
	}

	if !opMade {
		flag.PrintDefaults()
	}
}

func compressFiles() error {
	if _, err := os.Stat(*dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	out, err := os.Create(*dst)
	if err != nil {
		return err
	}
	defer out.Close()

	var filesToCompress []string
	if err := filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	builder, err := par.NewBuilder(par.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}

	for _, ftc := range filesToCompress {
		f, err := os.Open(ftc)
		if err != nil {
			return err
		}
		addErr := builder.Add(filepath.ToSlash(ftc), f)
		f.Close()
		if addErr != nil {
			return addErr
		}
	}

	_, err = builder.WriteTo(out)
	return err
}

func extractFiles() error {
	f, err := os.Open(*extract)
	if err != nil {
		return err
	}
	defer f.Close()

	archive, err := par.Open(f)
	if err != nil {
		return err
	}

	for _, name := range archive.List() {
		target := filepath.Join(*dst, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		src, err := archive.Open(name)
		if err != nil {
			return err
		}

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(out, src)
		out.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func listFiles() error {
	f, err := os.Open(*list)
	if err != nil {
		return err
	}
	defer f.Close()

	archive, err := par.Open(f)
	if err != nil {
		return err
	}

	header := archive.Header()
	fmt.Printf("author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	for _, entry := range header.Index {
		fmt.Printf("%s\t%d -> %d bytes\n", entry.Name, entry.Size, entry.CompressedSize)
	}
	return nil
}
