package cmd

import (
	"fmt"
	"strconv"

	"supersonic/core/catalogid"

	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "计算或解析目录 ID",
	Long:  `按扫描器的规则计算艺术家、专辑、歌曲的 ID，或者解析一个十六进制 ID 的类型`,
}

var idArtistCmd = &cobra.Command{
	Use:   "artist NAME",
	Short: "Compute an artist ID",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(catalogid.ArtistID(args[0]).Hex())
	},
}

var idAlbumCmd = &cobra.Command{
	Use:   "album TITLE ARTIST",
	Short: "Compute an album ID",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(catalogid.AlbumID(args[0], args[1]).Hex())
	},
}

var idSongCmd = &cobra.Command{
	Use:   "song TRACK DISC TITLE ALBUM ARTIST",
	Short: "Compute a song ID",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid track number %q", args[0])
		}
		disc, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid disc number %q", args[1])
		}
		fmt.Println(catalogid.SongID(track, disc, args[2], args[3], args[4]).Hex())
		return nil
	},
}

var idClassifyCmd = &cobra.Command{
	Use:   "classify HEX",
	Short: "Print the class of a wire ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := catalogid.ParseHexStrict(args[0])
		if err != nil {
			return fmt.Errorf("%q: %w", args[0], err)
		}
		fmt.Printf("%s %s\n", id.Hex(), id.Class())
		return nil
	},
}

func init() {
	idCmd.AddCommand(idArtistCmd, idAlbumCmd, idSongCmd, idClassifyCmd)
	rootCmd.AddCommand(idCmd)
}
