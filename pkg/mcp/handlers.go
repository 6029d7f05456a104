package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/shoebox/pkg/gallery"
	"github.com/unowned-ai/shoebox/pkg/service"
)

var errAdminOnly = fmt.Errorf("%w: only the admin account manages users", gallery.ErrInvalidInput)

func userParam() mcp.ToolOption {
	return mcp.WithString("user", mcp.Required(), mcp.Description("Username the call runs as"))
}

func albumParam(desc string) mcp.ToolOption {
	return mcp.WithString("album", mcp.Required(), mcp.Description(desc))
}

func pathParam() mcp.ToolOption {
	return mcp.WithString("path", mcp.Required(), mcp.Description("Path of the photo file"))
}

// Register adds every shoebox tool to s.
func (t *Tools) Register(s *server.MCPServer) {
	t.registerPing(s)
	t.registerUserTools(s)
	t.registerAlbumTools(s)
	t.registerPhotoTools(s)
	t.registerTagTypeTools(s)
	t.registerSearchTools(s)
}

func (t *Tools) registerPing(s *server.MCPServer) {
	t.add(s, mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check server liveness."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("pong"), nil
	})
}

// adminSession runs fn as the admin account, refusing anyone else.
func (t *Tools) adminSession(ctx context.Context, request mcp.CallToolRequest, fn func(*service.Session) (interface{}, error)) (interface{}, error) {
	return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
		if !s.User().IsAdmin() {
			return nil, errAdminOnly
		}
		return fn(s)
	})
}

func (t *Tools) registerUserTools(s *server.MCPServer) {
	t.add(s, mcp.NewTool("create_user",
		mcp.WithDescription("Create a user account. Only the admin may call this."),
		userParam(),
		mcp.WithString("username", mcp.Required(), mcp.Description("Name of the new account")),
	), t.handle("create user", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		username, err := requiredString(request, "username")
		if err != nil {
			return nil, err
		}
		return t.adminSession(ctx, request, func(s *service.Session) (interface{}, error) {
			u, err := t.lib.Admin().CreateUser(ctx, username)
			if err != nil {
				return nil, err
			}
			return usersView([]*gallery.User{u})[0], nil
		})
	}))

	t.add(s, mcp.NewTool("delete_user",
		mcp.WithDescription("Delete a user account and all of its albums. Only the admin may call this."),
		userParam(),
		mcp.WithString("username", mcp.Required(), mcp.Description("Name of the account to delete")),
	), t.handle("delete user", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		username, err := requiredString(request, "username")
		if err != nil {
			return nil, err
		}
		return t.adminSession(ctx, request, func(s *service.Session) (interface{}, error) {
			if err := t.lib.DeleteUser(ctx, username); err != nil {
				return nil, err
			}
			return map[string]string{"deleted": username}, nil
		})
	}))

	t.add(s, mcp.NewTool("list_users",
		mcp.WithDescription("List every user account. Only the admin may call this."),
		userParam(),
	), t.handle("list users", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		return t.adminSession(ctx, request, func(s *service.Session) (interface{}, error) {
			return usersView(t.lib.Admin().ListUsers()), nil
		})
	}))
}

type albumView struct {
	gallery.Summary
	Items []gallery.PhotoRecord `json:"items"`
}

func (t *Tools) registerAlbumTools(s *server.MCPServer) {
	t.add(s, mcp.NewTool("list_albums",
		mcp.WithDescription("List the user's albums with photo counts and date ranges."),
		userParam(),
	), t.handle("list albums", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			return albumSummaries(s.Albums()), nil
		})
	}))

	t.add(s, mcp.NewTool("create_album",
		mcp.WithDescription("Create an empty album. Names are unique per user, ignoring case."),
		userParam(),
		albumParam("Name of the new album"),
	), t.handle("create album", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			a, err := s.CreateAlbum(ctx, name)
			if err != nil {
				return nil, err
			}
			return a.Summary(), nil
		})
	}))

	t.add(s, mcp.NewTool("rename_album",
		mcp.WithDescription("Rename an album."),
		userParam(),
		albumParam("Current album name"),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New album name")),
	), t.handle("rename album", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		newName, err := requiredString(request, "new_name")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			if err := s.RenameAlbum(ctx, name, newName); err != nil {
				return nil, err
			}
			a, err := s.Album(newName)
			if err != nil {
				return nil, err
			}
			return a.Summary(), nil
		})
	}))

	t.add(s, mcp.NewTool("delete_album",
		mcp.WithDescription("Delete an album. Photos in other albums are unaffected."),
		userParam(),
		albumParam("Album to delete"),
	), t.handle("delete album", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			if err := s.DeleteAlbum(ctx, name); err != nil {
				return nil, err
			}
			return map[string]string{"deleted": name}, nil
		})
	}))

	t.add(s, mcp.NewTool("show_album",
		mcp.WithDescription("Show an album's summary and every photo in it, in album order."),
		userParam(),
		albumParam("Album to show"),
	), t.handle("show album", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, name, func(s *service.Session) (interface{}, error) {
			a := s.Current()
			return albumView{Summary: a.Summary(), Items: gallery.PhotoRecords(a.Photos())}, nil
		})
	}))

	t.add(s, mcp.NewTool("sort_album",
		mcp.WithDescription("Reorder an album by date taken or by tag signature."),
		userParam(),
		albumParam("Album to sort"),
		mcp.WithString("by", mcp.Required(), mcp.Description("Sort order: 'date' or 'tags'")),
	), t.handle("sort album", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		by, err := requiredString(request, "by")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, name, func(s *service.Session) (interface{}, error) {
			if err := s.SortAlbum(ctx, by); err != nil {
				return nil, err
			}
			return gallery.PhotoRecords(s.Current().Photos()), nil
		})
	}))
}

func (t *Tools) registerPhotoTools(s *server.MCPServer) {
	t.add(s, mcp.NewTool("add_photo",
		mcp.WithDescription("Add an image file to an album. The photo is dated by the file's modification time."),
		userParam(),
		albumParam("Album to add the photo to"),
		pathParam(),
	), t.handle("add photo", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		path, err := requiredString(request, "path")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, name, func(s *service.Session) (interface{}, error) {
			p, err := s.AddPhoto(ctx, path)
			if err != nil {
				return nil, err
			}
			return p.Record(), nil
		})
	}))

	t.add(s, mcp.NewTool("remove_photo",
		mcp.WithDescription("Remove a photo from an album."),
		userParam(),
		albumParam("Album holding the photo"),
		pathParam(),
	), t.handle("remove photo", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		path, err := requiredString(request, "path")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, name, func(s *service.Session) (interface{}, error) {
			if err := s.RemovePhoto(ctx, path); err != nil {
				return nil, err
			}
			return map[string]string{"removed": path}, nil
		})
	}))

	t.add(s, mcp.NewTool("set_caption",
		mcp.WithDescription("Set a photo's caption. The change reaches copies of the photo in other albums when the call ends."),
		userParam(),
		albumParam("Album holding the photo"),
		pathParam(),
		mcp.WithString("caption", mcp.Description("New caption; empty clears it")),
	), t.handle("set caption", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		name, err := requiredString(request, "album")
		if err != nil {
			return nil, err
		}
		path, err := requiredString(request, "path")
		if err != nil {
			return nil, err
		}
		caption := stringArg(request, "caption")
		return t.session(ctx, request, name, func(s *service.Session) (interface{}, error) {
			if err := s.SetCaption(ctx, path, caption); err != nil {
				return nil, err
			}
			return photoRecord(s, path)
		})
	}))

	tagOptions := func(desc string) []mcp.ToolOption {
		return []mcp.ToolOption{
			mcp.WithDescription(desc),
			userParam(),
			albumParam("Album holding the photo"),
			pathParam(),
			mcp.WithString("type", mcp.Required(), mcp.Description("Tag type, e.g. person or location")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Tag value")),
		}
	}

	t.add(s, mcp.NewTool("add_tag", tagOptions("Tag a photo. The tag type must be registered and under its multiplicity.")...),
		t.handle("add tag", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
			return t.editTag(ctx, request, (*service.Session).AddTag)
		}))

	t.add(s, mcp.NewTool("delete_tag", tagOptions("Remove a tag from a photo.")...),
		t.handle("delete tag", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
			return t.editTag(ctx, request, (*service.Session).DeleteTag)
		}))

	transferOptions := func(desc string) []mcp.ToolOption {
		return []mcp.ToolOption{
			mcp.WithDescription(desc),
			userParam(),
			albumParam("Album holding the photo"),
			pathParam(),
			mcp.WithString("to", mcp.Required(), mcp.Description("Destination album")),
		}
	}

	t.add(s, mcp.NewTool("copy_photo", transferOptions("Copy a photo into another album.")...),
		t.handle("copy photo", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
			return t.transfer(ctx, request, func(s *service.Session, path, dest string) error {
				_, err := s.CopyPhoto(ctx, path, dest)
				return err
			})
		}))

	t.add(s, mcp.NewTool("move_photo", transferOptions("Move a photo into another album.")...),
		t.handle("move photo", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
			return t.transfer(ctx, request, func(s *service.Session, path, dest string) error {
				return s.MovePhoto(ctx, path, dest)
			})
		}))
}

func (t *Tools) editTag(ctx context.Context, request mcp.CallToolRequest, edit func(*service.Session, context.Context, string, string, string) error) (interface{}, error) {
	args := make(map[string]string, 4)
	for _, name := range []string{"album", "path", "type", "value"} {
		v, err := requiredString(request, name)
		if err != nil {
			return nil, err
		}
		args[name] = v
	}
	return t.session(ctx, request, args["album"], func(s *service.Session) (interface{}, error) {
		if err := edit(s, ctx, args["path"], args["type"], args["value"]); err != nil {
			return nil, err
		}
		return photoRecord(s, args["path"])
	})
}

func (t *Tools) transfer(ctx context.Context, request mcp.CallToolRequest, move func(s *service.Session, path, dest string) error) (interface{}, error) {
	name, err := requiredString(request, "album")
	if err != nil {
		return nil, err
	}
	path, err := requiredString(request, "path")
	if err != nil {
		return nil, err
	}
	dest, err := requiredString(request, "to")
	if err != nil {
		return nil, err
	}
	return t.session(ctx, request, name, func(s *service.Session) (interface{}, error) {
		if err := move(s, path, dest); err != nil {
			return nil, err
		}
		a, err := s.Album(dest)
		if err != nil {
			return nil, err
		}
		return a.Summary(), nil
	})
}

func photoRecord(s *service.Session, path string) (interface{}, error) {
	p, err := s.Photo(path)
	if err != nil {
		return nil, err
	}
	return p.Record(), nil
}

func (t *Tools) registerTagTypeTools(s *server.MCPServer) {
	t.add(s, mcp.NewTool("add_tag_type",
		mcp.WithDescription("Register a tag type for the user. Multiplicity caps how many tags of the type one photo may carry; 0 means unbounded."),
		userParam(),
		mcp.WithString("type", mcp.Required(), mcp.Description("Tag type name")),
		mcp.WithNumber("multiplicity", mcp.Description("Maximum tags of this type per photo, 0 for unbounded")),
	), t.handle("add tag type", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		tagType, err := requiredString(request, "type")
		if err != nil {
			return nil, err
		}
		n, err := intArg(request, "multiplicity", 0)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			n = gallery.Unbounded
		}
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			if err := s.AddTagType(ctx, tagType, n); err != nil {
				return nil, err
			}
			return tagTypesView(s.User().TagTypes()), nil
		})
	}))

	t.add(s, mcp.NewTool("list_tag_types",
		mcp.WithDescription("List the user's tag types and their multiplicities."),
		userParam(),
	), t.handle("list tag types", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			return tagTypesView(s.User().TagTypes()), nil
		})
	}))
}

func saveAsParam() mcp.ToolOption {
	return mcp.WithString("save_as", mcp.Description("If set, create an album with this name holding the results"))
}

// searchResult packages results and, when save_as is given, stores them as a
// new album.
func searchResult(ctx context.Context, s *service.Session, request mcp.CallToolRequest, query string, photos []*gallery.Photo) (interface{}, error) {
	view := searchView{Query: query, Photos: gallery.PhotoRecords(photos)}
	if name := stringArg(request, "save_as"); name != "" {
		a, err := s.CreateAlbumFromResults(ctx, name, photos)
		if err != nil {
			return nil, err
		}
		view.SavedAs = a.Name()
	}
	return view, nil
}

func (t *Tools) registerSearchTools(s *server.MCPServer) {
	t.add(s, mcp.NewTool("search_by_date",
		mcp.WithDescription("Find photos taken within a date range across all of the user's albums. Bounds are days (YYYY-MM-DD, whole day) or RFC 3339 timestamps."),
		userParam(),
		mcp.WithString("start", mcp.Required(), mcp.Description("First day or instant of the range")),
		mcp.WithString("end", mcp.Required(), mcp.Description("Last day or instant of the range")),
		saveAsParam(),
	), t.handle("search by date", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		start, end, err := gallery.ParseDateRange(stringArg(request, "start"), stringArg(request, "end"), time.Local)
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			photos, err := s.SearchByDate(start, end)
			if err != nil {
				return nil, err
			}
			query := start.Format(time.RFC3339) + " .. " + end.Format(time.RFC3339)
			return searchResult(ctx, s, request, query, photos)
		})
	}))

	t.add(s, mcp.NewTool("search_by_tags",
		mcp.WithDescription("Find photos by tags. 'single' takes one pair and matches photos with exactly one of the pairs; 'and' and 'or' take two pairs."),
		userParam(),
		mcp.WithString("mode", mcp.Description("single (default), and, or")),
		mcp.WithString("type1", mcp.Description("First tag type")),
		mcp.WithString("value1", mcp.Description("First tag value")),
		mcp.WithString("type2", mcp.Description("Second tag type")),
		mcp.WithString("value2", mcp.Description("Second tag value")),
		saveAsParam(),
	), t.handle("search by tags", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		mode, err := gallery.ParseSearchMode(stringArg(request, "mode"))
		if err != nil {
			return nil, err
		}
		q := gallery.TagQuery{
			Mode:   mode,
			First:  gallery.TagPair{Type: stringArg(request, "type1"), Value: stringArg(request, "value1")},
			Second: gallery.TagPair{Type: stringArg(request, "type2"), Value: stringArg(request, "value2")},
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			photos, err := s.SearchByTags(q)
			if err != nil {
				return nil, err
			}
			return searchResult(ctx, s, request, q.String(), photos)
		})
	}))

	t.add(s, mcp.NewTool("search_by_caption",
		mcp.WithDescription("Find photos whose caption contains the text, ignoring case."),
		userParam(),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to look for")),
		saveAsParam(),
	), t.handle("search by caption", func(ctx context.Context, request mcp.CallToolRequest) (interface{}, error) {
		text, err := requiredString(request, "text")
		if err != nil {
			return nil, err
		}
		return t.session(ctx, request, "", func(s *service.Session) (interface{}, error) {
			photos, err := s.SearchByCaption(text)
			if err != nil {
				return nil, err
			}
			return searchResult(ctx, s, request, fmt.Sprintf("caption ~ %q", text), photos)
		})
	}))
}
