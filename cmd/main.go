package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/nallik/vfat/disks"
	"github.com/nallik/vfat/drivers/fat"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Usage: "Manage various types of disk image files",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create or wipe an image",
				Action:    formatImage,
				ArgsUsage: "HCL_FILE  KML_FILE",
			},
			{
				Name:      "geometry",
				Usage:     "Print the parameters of a well-known disk geometry",
				Action:    printGeometry,
				ArgsUsage: "SLUG",
			},
			{
				Name:   "list-geometries",
				Usage:  "List every well-known disk geometry slug",
				Action: listGeometries,
			},
			{
				Name:      "shortname",
				Usage:     "Show the 8.3 short name a long file name would be assigned",
				Action:    printShortName,
				ArgsUsage: "LONG_NAME [ALREADY_USED_SHORT_NAME...]",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func formatImage(context *cli.Context) error {
	return nil
}

func printGeometry(context *cli.Context) error {
	if context.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument, the geometry slug")
	}

	geometry, err := disks.GetPredefinedDiskGeometry(context.Args().First())
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", geometry.Name, geometry.Slug)
	fmt.Printf("  total size:  %d bytes\n", geometry.TotalSizeBytes())
	fmt.Printf("  bytes/sector: %d\n", geometry.BytesPerSector())
	fmt.Printf("  heads: %d, tracks: %d, sectors/track: %d\n",
		geometry.Heads, geometry.TotalDataTracks, geometry.SectorsPerTrack)
	return nil
}

func listGeometries(context *cli.Context) error {
	slugs := disks.PredefinedDiskGeometrySlugs()
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Println(slug)
	}
	return nil
}

func printShortName(context *cli.Context) error {
	if context.NArg() < 1 {
		return fmt.Errorf("expected at least one argument, the long file name")
	}

	longName := context.Args().First()
	used := make(map[string]struct{})
	for _, existing := range context.Args().Slice()[1:] {
		used[strings.ToUpper(existing)] = struct{}{}
	}

	generator := fat.NewShortNameGenerator()
	shortName, err := generator.Generate(longName, used)
	if err != nil {
		return err
	}

	fmt.Println(shortName)
	return nil
}
