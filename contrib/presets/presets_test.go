package presets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fixture"
	"github.com/syssam/fixture/contrib/presets"
)

const usersYAML = `
base:
  role: member
  address: &springfield
    city: Springfield
admin:
  role: admin
  tags: [staff, ops]
anonymous:
  name: !unset
  address: *springfield
empty:
`

type Address struct {
	Street string
	City   string
}

type User struct {
	Name    string
	Role    string
	Age     int
	Tags    []string
	Address *Address
}

func newUserFactory() *fixture.Factory[*User] {
	return fixture.Define(func(o *fixture.Options[*User]) (*User, error) {
		return &User{Name: "Bob", Role: "guest", Address: &Address{Street: "1 Main St"}}, nil
	})
}

func TestParseYAML(t *testing.T) {
	set, err := presets.ParseYAML([]byte(usersYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"admin", "anonymous", "base", "empty"}, set.Names())
	assert.Equal(t, fixture.Params{
		"role":    "member",
		"address": fixture.Params{"city": "Springfield"},
	}, set["base"])
	assert.Equal(t, fixture.Params{"role": "admin", "tags": []any{"staff", "ops"}}, set["admin"])
	assert.Equal(t, fixture.Params{}, set["empty"])

	t.Run("unset_tag", func(t *testing.T) {
		assert.Equal(t, fixture.Undefined, set["anonymous"]["name"])
	})

	t.Run("alias", func(t *testing.T) {
		assert.Equal(t, fixture.Params{"city": "Springfield"}, set["anonymous"]["address"])
	})

	t.Run("empty_document", func(t *testing.T) {
		set, err := presets.ParseYAML(nil)
		require.NoError(t, err)
		assert.Empty(t, set)
	})

	t.Run("not_a_mapping", func(t *testing.T) {
		_, err := presets.ParseYAML([]byte("- admin\n- member\n"))
		assert.Error(t, err)

		_, err = presets.ParseYAML([]byte("admin: yes\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `preset "admin" must be a mapping`)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := presets.ParseYAML([]byte("admin: [unclosed\n"))
		assert.Error(t, err)
	})
}

func TestMsgpack(t *testing.T) {
	set := presets.Set{
		"admin": fixture.Params{
			"role":    "admin",
			"age":     int64(42),
			"tags":    []any{"staff"},
			"address": fixture.Params{"city": "Shelbyville"},
		},
		"anonymous": fixture.Params{"name": fixture.Undefined},
	}

	data, err := presets.EncodeMsgpack(set)
	require.NoError(t, err)

	got, err := presets.DecodeMsgpack(data)
	require.NoError(t, err)
	assert.Equal(t, set, got)

	t.Run("invalid", func(t *testing.T) {
		_, err := presets.DecodeMsgpack([]byte{0xc1})
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "users.yml")
		require.NoError(t, os.WriteFile(path, []byte(usersYAML), 0o600))

		set, err := presets.LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, set, 4)
	})

	t.Run("msgpack", func(t *testing.T) {
		data, err := presets.EncodeMsgpack(presets.Set{"admin": fixture.Params{"role": "admin"}})
		require.NoError(t, err)
		path := filepath.Join(dir, "users.msgpack")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		set, err := presets.LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, presets.Set{"admin": fixture.Params{"role": "admin"}}, set)
	})

	t.Run("unknown_format", func(t *testing.T) {
		_, err := presets.LoadFile(filepath.Join(dir, "users.json"))
		assert.ErrorIs(t, err, presets.ErrUnknownFormat)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := presets.LoadFile(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestApply(t *testing.T) {
	set, err := presets.ParseYAML([]byte(usersYAML))
	require.NoError(t, err)
	users := newUserFactory()

	t.Run("single", func(t *testing.T) {
		admins, err := presets.Apply(users, set, "admin")
		require.NoError(t, err)
		u := admins.MustBuild(nil)
		assert.Equal(t, "admin", u.Role)
		assert.Equal(t, []string{"staff", "ops"}, u.Tags)
	})

	t.Run("in_order", func(t *testing.T) {
		f, err := presets.Apply(users, set, "base", "admin")
		require.NoError(t, err)
		u := f.MustBuild(nil)
		assert.Equal(t, "admin", u.Role)
		assert.Equal(t, &Address{Street: "1 Main St", City: "Springfield"}, u.Address)
	})

	t.Run("unset", func(t *testing.T) {
		f, err := presets.Apply(users, set, "anonymous")
		require.NoError(t, err)
		assert.Empty(t, f.MustBuild(nil).Name)
	})

	t.Run("call_params_win", func(t *testing.T) {
		f, err := presets.Apply(users, set, "admin")
		require.NoError(t, err)
		assert.Equal(t, "owner", f.MustBuild(fixture.Params{"role": "owner"}).Role)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := presets.Apply(users, set, "admin", "root")
		assert.ErrorIs(t, err, presets.ErrNotFound)
		assert.EqualError(t, err, `presets: preset "root" not found`)
	})

	t.Run("does_not_share_state", func(t *testing.T) {
		p, err := set.Params("base")
		require.NoError(t, err)
		p["address"].(fixture.Params)["city"] = "Capital City"
		assert.Equal(t, "Springfield", set["base"]["address"].(fixture.Params)["city"])
	})
}

func TestTrait(t *testing.T) {
	set := presets.Set{"admin": fixture.Params{"role": "admin"}}
	users := newUserFactory()

	admin, err := presets.Trait[*User](set, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", users.With(admin).MustBuild(nil).Role)

	_, err = presets.Trait[*User](set, "root")
	assert.ErrorIs(t, err, presets.ErrNotFound)
	assert.Panics(t, func() { presets.MustTrait[*User](set, "root") })
	assert.Equal(t, "admin", users.With(presets.MustTrait[*User](set, "admin")).MustBuild(nil).Role)
}
