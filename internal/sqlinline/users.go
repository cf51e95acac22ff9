package sqlinline

const QUpsertGoogleUser = `--sql b12db847-4f42-42aa-a5f8-2077bb6fe4b8
with incoming as (
    select
        $1::text as google_sub,
        $2::text as email,
        $3::text as name,
        $4::text as picture,
        $5::text as locale
)
insert into users (id, google_sub, email, name, avatar_url, plan, locale_pref, properties, created_at, updated_at)
values (gen_random_uuid(), (select google_sub from incoming), (select email from incoming), (select name from incoming),
        (select picture from incoming), 'free', (select locale from incoming), '{}'::jsonb, now(), now())
on conflict (email) do update set
    name = excluded.name,
    avatar_url = excluded.avatar_url,
    locale_pref = excluded.locale_pref,
    google_sub = excluded.google_sub,
    updated_at = now()
returning id, plan, properties;
`

const QSelectUserByID = `--sql dc9dc0ee-d6b8-4ab9-a50f-c971997ff21c
select id, google_sub, email, coalesce(locale_pref, 'en') as locale, plan, properties, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserProperties = `--sql b63f7231-c36d-4c77-b36a-6b0292084995
select properties
from users
where id = $1::uuid
limit 1;
`

const QGrantUnlimited = `--sql 38f5a547-5d28-4421-ba83-a9bb6ce1695a
update users
set properties = properties || jsonb_build_object(
        'unlimited_enhancements', true,
        'access_granted_by', $2::text,
        'access_granted_at', to_char(now() at time zone 'utc', 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
        'access_description', $3::text
    ),
    updated_at = now()
where id = $1::uuid;
`

const QRevokeUnlimited = `--sql 3c48c328-92b2-4823-8cdc-b0bb3870bf05
update users
set properties = properties - 'unlimited_enhancements' - 'access_granted_by' - 'access_granted_at' - 'access_description',
    updated_at = now()
where id = $1::uuid;
`

const QSetUserPlan = `--sql 6549c337-90f1-4af8-bf8b-abc5dd43e1ff
update users
set plan = $2::text,
    updated_at = now()
where id = $1::uuid
returning id;
`

const QSelectUserIDByEmail = `--sql d09db032-31ee-4c78-9c0f-5ce1e31e7959
select id
from users
where lower(email) = lower($1::text)
limit 1;
`
