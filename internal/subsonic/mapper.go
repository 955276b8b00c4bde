package subsonic

import "github.com/tonicfm/tonic/internal/catalog"

// mapArtistIndex flattens the alphabetical index groups into one ordered
// artist list; the index grouping is a server-side presentation detail.
func mapArtistIndex(idx *indexes) []catalog.Node {
	var nodes []catalog.Node
	for _, group := range idx.Index {
		for _, a := range group.Artist {
			nodes = append(nodes, catalog.Node{
				ID:         a.ID,
				Kind:       catalog.KindArtist,
				Name:       a.Name,
				CoverArtID: a.CoverArt,
			})
		}
	}
	return nodes
}

func mapAlbums(albums []album) []catalog.Node {
	nodes := make([]catalog.Node, 0, len(albums))
	for _, al := range albums {
		nodes = append(nodes, catalog.Node{
			ID:         al.ID,
			Kind:       catalog.KindAlbum,
			Name:       al.Name,
			CoverArtID: al.CoverArt,
		})
	}
	return nodes
}

func mapSongs(songs []song) []catalog.Node {
	nodes := make([]catalog.Node, 0, len(songs))
	for _, s := range songs {
		nodes = append(nodes, catalog.Node{
			ID:         s.ID,
			Kind:       catalog.KindTrack,
			Name:       s.Title,
			CoverArtID: s.CoverArt,
			Track: &catalog.TrackMeta{
				Artist:   s.Artist,
				Album:    s.Album,
				TrackNum: s.Track,
				Duration: s.Duration,
			},
		})
	}
	return nodes
}
