package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/branched-services/go-pvm/gen"
)

func generateCmd() *cobra.Command {
	var (
		configPath  string
		codec       string
		output      string
		proxySuffix string
		buildTags   string
		load        bool
		stdout      bool
	)

	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Generate contract glue for the package in dir (default .)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg, err := loadConfig(configPath, dir)
			if err != nil {
				return err
			}
			opts := cfg.Options()
			flags := cmd.Flags()
			if flags.Changed("codec") {
				opts = append(opts, gen.WithCodec(codec))
			}
			if flags.Changed("output") {
				opts = append(opts, gen.WithOutputFile(output))
			}
			if flags.Changed("proxy-suffix") {
				opts = append(opts, gen.WithProxySuffix(proxySuffix))
			}
			if flags.Changed("tags") {
				opts = append(opts, gen.WithBuildTags(buildTags))
			}

			var m *gen.Module
			if load {
				m, err = gen.LoadPackage(dir, ".")
			} else {
				m, err = gen.ParseDir(dir)
			}
			if err != nil {
				return err
			}

			out, err := gen.Generate(m, opts...)
			if err != nil {
				return err
			}
			if stdout {
				_, err := cmd.OutOrStdout().Write(out.Source)
				return err
			}

			target := dir
			if m.Dir != "" {
				target = m.Dir
			}
			path, err := gen.WriteFile(target, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pvmgen: wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: nearest "+gen.ConfigFile+")")
	cmd.Flags().StringVar(&codec, "codec", "", "value codec: scale, rlp or cbor")
	cmd.Flags().StringVarP(&output, "output", "o", "", "generated file name (default "+gen.DefaultOutputFile+")")
	cmd.Flags().StringVar(&proxySuffix, "proxy-suffix", "", "proxy type name suffix (default "+gen.DefaultProxySuffix+")")
	cmd.Flags().StringVar(&buildTags, "tags", "", "build constraint for the generated file")
	cmd.Flags().BoolVar(&load, "load", false, "load the package with the go command instead of parsing the directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the generated file instead of writing it")
	return cmd
}

func loadConfig(path, dir string) (*gen.Config, error) {
	if path != "" {
		return gen.LoadConfig(path)
	}
	return gen.FindConfig(dir)
}
