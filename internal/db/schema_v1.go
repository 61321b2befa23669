package db

const usersAndMemesSchemaV1 = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
    email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password_hash TEXT NOT NULL,
    avatar_url    TEXT,
    created       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS memes (
    id        TEXT PRIMARY KEY,
    owner_id  TEXT NOT NULL,
    title     TEXT NOT NULL,
    image_url TEXT NOT NULL,
    views     INTEGER NOT NULL DEFAULT 0,
    created   TEXT NOT NULL,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_memes_created ON memes(created DESC);
CREATE INDEX IF NOT EXISTS idx_memes_owner   ON memes(owner_id);

CREATE TABLE IF NOT EXISTS meme_likes (
    meme_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    created TEXT NOT NULL,
    PRIMARY KEY (meme_id, user_id),
    FOREIGN KEY (meme_id) REFERENCES memes(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

const templatesSchemaV2 = `
CREATE TABLE IF NOT EXISTS templates (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    image_url   TEXT NOT NULL,
    text_areas  TEXT NOT NULL DEFAULT '[]',
    is_public   INTEGER NOT NULL DEFAULT 1,
    downloads   INTEGER NOT NULL DEFAULT 0,
    uses        INTEGER NOT NULL DEFAULT 0,
    created     TEXT NOT NULL,
    updated     TEXT NOT NULL,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_templates_category ON templates(category, created DESC);

CREATE TABLE IF NOT EXISTS template_favorites (
    template_id TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    created     TEXT NOT NULL,
    PRIMARY KEY (template_id, user_id),
    FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_template_favorites_user ON template_favorites(user_id, created DESC);

CREATE TABLE IF NOT EXISTS template_ratings (
    template_id TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    rating      INTEGER NOT NULL CHECK(rating BETWEEN 1 AND 5),
    created     TEXT NOT NULL,
    PRIMARY KEY (template_id, user_id),
    FOREIGN KEY (template_id) REFERENCES templates(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
`

const foldersAndCollaborationsSchemaV3 = `
CREATE TABLE IF NOT EXISTS folders (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    name        TEXT NOT NULL,
    color       TEXT NOT NULL DEFAULT '',
    icon        TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    is_private  INTEGER NOT NULL DEFAULT 0,
    created     TEXT NOT NULL,
    updated     TEXT NOT NULL,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_folders_owner ON folders(owner_id, created DESC);

CREATE TABLE IF NOT EXISTS folder_memes (
    folder_id TEXT NOT NULL,
    meme_id   TEXT NOT NULL,
    added     TEXT NOT NULL,
    PRIMARY KEY (folder_id, meme_id),
    FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE CASCADE,
    FOREIGN KEY (meme_id) REFERENCES memes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS collaborations (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    type        TEXT NOT NULL CHECK(type IN ('meme', 'template', 'challenge')),
    status      TEXT NOT NULL DEFAULT 'draft' CHECK(status IN ('draft', 'active', 'reviewing', 'completed')),
    is_public   INTEGER NOT NULL DEFAULT 0,
    created     TEXT NOT NULL,
    updated     TEXT NOT NULL,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS collaborators (
    collaboration_id TEXT NOT NULL,
    user_id          TEXT NOT NULL,
    role             TEXT NOT NULL CHECK(role IN ('owner', 'editor', 'viewer')),
    invite_status    TEXT NOT NULL CHECK(invite_status IN ('pending', 'accepted', 'declined')),
    invited_by       TEXT,
    created          TEXT NOT NULL,
    PRIMARY KEY (collaboration_id, user_id),
    FOREIGN KEY (collaboration_id) REFERENCES collaborations(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_collaborators_user ON collaborators(user_id, invite_status);
`

const commentsSchemaV4 = `
CREATE TABLE IF NOT EXISTS comments (
    id             TEXT PRIMARY KEY,
    meme_id        TEXT NOT NULL,
    author_id      TEXT NOT NULL,
    parent_id      TEXT,
    content        TEXT NOT NULL,
    created        TEXT NOT NULL,
    updated        TEXT NOT NULL,

    FOREIGN KEY (meme_id) REFERENCES memes(id) ON DELETE CASCADE,
    FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (parent_id) REFERENCES comments(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_comments_meme   ON comments(meme_id, created DESC) WHERE parent_id IS NULL;
CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_id, created ASC);

CREATE TABLE IF NOT EXISTS comment_likes (
    comment_id TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    created    TEXT NOT NULL,
    PRIMARY KEY (comment_id, user_id),
    FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS comment_reports (
    id          TEXT PRIMARY KEY,
    comment_id  TEXT NOT NULL,
    reporter_id TEXT NOT NULL,
    reason      TEXT NOT NULL CHECK(reason IN ('spam', 'harassment', 'inappropriate', 'other')),
    details     TEXT NOT NULL DEFAULT '',
    created     TEXT NOT NULL,
    UNIQUE (comment_id, reporter_id),
    FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE,
    FOREIGN KEY (reporter_id) REFERENCES users(id) ON DELETE CASCADE
);
`

const communitySchemaV5 = `
CREATE TABLE IF NOT EXISTS challenges (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL,
    category    TEXT NOT NULL,
    rules       TEXT NOT NULL DEFAULT '',
    start_date  TEXT NOT NULL,
    end_date    TEXT NOT NULL,
    submissions INTEGER NOT NULL DEFAULT 0,
    created     TEXT NOT NULL,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS challenge_participants (
    challenge_id TEXT NOT NULL,
    user_id      TEXT NOT NULL,
    joined       TEXT NOT NULL,
    PRIMARY KEY (challenge_id, user_id),
    FOREIGN KEY (challenge_id) REFERENCES challenges(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS meme_groups (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL,
    is_private  INTEGER NOT NULL DEFAULT 0,
    posts       INTEGER NOT NULL DEFAULT 0,
    created     TEXT NOT NULL,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id TEXT NOT NULL,
    user_id  TEXT NOT NULL,
    joined   TEXT NOT NULL,
    PRIMARY KEY (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES meme_groups(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS system_settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`
