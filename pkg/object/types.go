package object

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

// ParseObjectType maps an envelope tag to an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch t := ObjectType(s); t {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
		return t, nil
	default:
		return "", unknownFormat("object type %q", s)
	}
}

const (
	// Tree mode constants in Git's canonical (unpadded) spelling.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
	TreeModeGitlink    = "160000"
)

// Object is implemented by every storable object variant.
type Object interface {
	Type() ObjectType
	Marshal() ([]byte, error)
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

func (b *Blob) Type() ObjectType { return TypeBlob }

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// Tree holds tree entries in their stored order.
type Tree struct {
	Entries []TreeEntry
}

func (t *Tree) Type() ObjectType { return TypeTree }

// Commit is a KVLM payload with tree/parent/author/committer headers.
type Commit struct {
	KVLM
}

func (c *Commit) Type() ObjectType { return TypeCommit }

// Tree returns the commit's tree header.
func (c *Commit) Tree() Hash {
	v, _ := c.Get("tree")
	return Hash(v)
}

// Parents returns every parent header in stored order.
func (c *Commit) Parents() []Hash {
	vals := c.Values("parent")
	out := make([]Hash, 0, len(vals))
	for _, v := range vals {
		out = append(out, Hash(v))
	}
	return out
}

// Tag is an annotated tag: a KVLM payload pointing at another object.
type Tag struct {
	KVLM
}

func (t *Tag) Type() ObjectType { return TypeTag }

// Object returns the tagged object id.
func (t *Tag) Object() Hash {
	v, _ := t.Get("object")
	return Hash(v)
}

// TargetType returns the declared type of the tagged object.
func (t *Tag) TargetType() ObjectType {
	v, _ := t.Get("type")
	return ObjectType(v)
}

// Decode parses payload bytes as the given object type.
func Decode(objType ObjectType, data []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		return UnmarshalBlob(data)
	case TypeTree:
		return UnmarshalTree(data)
	case TypeCommit:
		kv, err := ParseKVLM(data)
		if err != nil {
			return nil, err
		}
		return &Commit{KVLM: *kv}, nil
	case TypeTag:
		kv, err := ParseKVLM(data)
		if err != nil {
			return nil, err
		}
		return &Tag{KVLM: *kv}, nil
	default:
		return nil, unknownFormat("object type %q", objType)
	}
}
